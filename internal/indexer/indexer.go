package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/fingerprint"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"github.com/hyperjump/kotae/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RootGroup names the group of files sitting directly in the source directory.
const RootGroup = "."

const sampleIDs = 3

// GroupReport summarizes the ingestion of one document group.
type GroupReport struct {
	Group     string `json:"group"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Existing  int    `json:"existing"`
	Added     int    `json:"added"`
	Stale     int    `json:"stale"`
	Error     string `json:"error,omitempty"`
}

// Indexer ingests document groups into the chunk index. Ingestion is
// additive: chunks whose id is already indexed are never touched.
type Indexer struct {
	store     vector.Store
	embedder  embedding.Embedder
	keywords  keyword.ChunkIndex // optional
	extractor *extract.Extractor
	chunker   *Chunker
	config    config.IngestConfig
	logger    *zap.Logger
	mu        sync.Mutex // serializes ingestion and reset
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger for progress and warnings.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithKeywordIndex also indexes every added chunk's text for keyword search.
func WithKeywordIndex(k keyword.ChunkIndex) IndexerOption {
	return func(idx *Indexer) { idx.keywords = k }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	store vector.Store,
	embedder embedding.Embedder,
	extractor *extract.Extractor,
	cfg config.IngestConfig,
	opts ...IndexerOption,
) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.InsertWorkers <= 0 {
		cfg.InsertWorkers = 1
	}
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		config:    cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

// SourceDir returns the directory groups are read from.
func (idx *Indexer) SourceDir() string { return idx.config.SourceDir }

// Groups lists the document groups under the source directory: every
// immediate subdirectory, plus RootGroup when loose files sit at the top level.
func (idx *Indexer) Groups() ([]string, error) {
	entries, err := os.ReadDir(idx.config.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read source directory: %w", models.ErrLoad, err)
	}
	var groups []string
	hasLoose := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			groups = append(groups, e.Name())
		} else if idx.allowed(e.Name()) {
			hasLoose = true
		}
	}
	sort.Strings(groups)
	if hasLoose {
		groups = append([]string{RootGroup}, groups...)
	}
	return groups, nil
}

// GroupOf returns the group a path under the source directory belongs to, or
// "" when the path lies outside it.
func (idx *Indexer) GroupOf(path string) string {
	rel, err := filepath.Rel(idx.config.SourceDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	if len(parts) == 2 {
		return parts[0]
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return parts[0]
	}
	return RootGroup
}

// IngestAll ingests every group in order. A group that fails to load is
// reported and skipped; embedding, storage and context errors stop the run
// and are returned with the reports gathered so far. Batches committed
// before a failure stay committed.
func (idx *Indexer) IngestAll(ctx context.Context) ([]GroupReport, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	groups, err := idx.Groups()
	if err != nil {
		return nil, err
	}
	reports := make([]GroupReport, 0, len(groups))
	for _, g := range groups {
		rep, err := idx.ingestGroup(ctx, g)
		if err != nil {
			rep.Error = err.Error()
			reports = append(reports, rep)
			if errors.Is(err, models.ErrLoad) {
				idx.logger.Warn("group ingestion aborted", zap.String("group", g), zap.Error(err))
				continue
			}
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// IngestGroup ingests a single group by name. The name must be RootGroup or
// a single directory name under the source directory.
func (idx *Indexer) IngestGroup(ctx context.Context, group string) (GroupReport, error) {
	if err := ValidateGroup(group); err != nil {
		return GroupReport{Group: group}, err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.ingestGroup(ctx, group)
}

func (idx *Indexer) ingestGroup(ctx context.Context, group string) (GroupReport, error) {
	rep := GroupReport{Group: group}
	files, err := idx.groupFiles(group)
	if err != nil {
		return rep, err
	}
	rep.Documents = len(files)

	var chunks []*models.Chunk
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		pages, err := idx.extractor.Extract(path)
		if err != nil {
			return rep, err
		}
		source := idx.sourcePath(path)
		for i := range pages {
			pages[i].SourcePath = source
		}
		chunks = append(chunks, idx.chunker.ChunkPages(pages)...)
	}
	AssignChunkIDs(chunks)
	rep.Chunks = len(chunks)
	if len(chunks) > 0 {
		sample := make([]string, 0, sampleIDs)
		for _, c := range chunks[:min(sampleIDs, len(chunks))] {
			sample = append(sample, c.ID)
		}
		idx.logger.Debug("group chunked", zap.String("group", group), zap.Int("chunks", len(chunks)), zap.Strings("sample_ids", sample))
	}

	existing, err := idx.store.ExistingIDs(ctx)
	if err != nil {
		return rep, err
	}
	var fresh []vector.Entry
	var unchanged []*models.Chunk
	for _, c := range chunks {
		fp := fingerprint.Of(c.Text)
		old, ok := existing[c.ID]
		if !ok {
			fresh = append(fresh, vector.Entry{Chunk: c, Fingerprint: fp})
			continue
		}
		rep.Existing++
		if old != 0 && old != fp {
			rep.Stale++
			idx.logger.Warn("indexed chunk content changed; reset to reindex", zap.String("id", c.ID))
			continue
		}
		unchanged = append(unchanged, c)
	}

	added, err := idx.insert(ctx, fresh)
	rep.Added = added
	if err != nil {
		return rep, err
	}
	if idx.keywords != nil && len(unchanged) > 0 {
		if err := idx.keywords.IndexChunks(ctx, unchanged); err != nil {
			return rep, fmt.Errorf("%w: keyword index: %w", models.ErrStorage, err)
		}
	}
	idx.logger.Info("group ingested",
		zap.String("group", group),
		zap.Int("documents", rep.Documents),
		zap.Int("chunks", rep.Chunks),
		zap.Int("existing", rep.Existing),
		zap.Int("added", rep.Added),
		zap.Int("stale", rep.Stale))
	return rep, nil
}

// insert embeds and stores entries in batches. Each batch commits on its own.
func (idx *Indexer) insert(ctx context.Context, entries []vector.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	var added atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.InsertWorkers)
	for start := 0; start < len(entries); start += idx.config.BatchSize {
		batch := entries[start:min(start+idx.config.BatchSize, len(entries))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, e := range batch {
				texts[i] = e.Chunk.Text
			}
			vecs, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			chunks := make([]*models.Chunk, len(batch))
			for i := range batch {
				batch[i].Vector = vecs[i]
				chunks[i] = batch[i].Chunk
			}
			if err := idx.store.InsertBatch(gctx, batch); err != nil {
				return err
			}
			added.Add(int64(len(batch)))
			if idx.keywords != nil {
				if err := idx.keywords.IndexChunks(gctx, chunks); err != nil {
					return fmt.Errorf("%w: keyword index: %w", models.ErrStorage, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return int(added.Load()), err
}

// Reset clears the chunk index and the keyword index. It cannot be undone.
func (idx *Indexer) Reset(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.logger.Warn("clearing chunk index")
	if err := idx.store.Reset(ctx); err != nil {
		return err
	}
	if idx.keywords != nil {
		if err := idx.keywords.Reset(ctx); err != nil {
			return fmt.Errorf("%w: keyword index: %w", models.ErrStorage, err)
		}
	}
	return nil
}

// ValidateGroup rejects group names that do not name an immediate
// subdirectory of the source directory.
func ValidateGroup(group string) error {
	if group == RootGroup {
		return nil
	}
	if group == "" || group == ".." || strings.ContainsAny(group, `/\`) {
		return fmt.Errorf("%w: invalid group name %q", models.ErrInvalidInput, group)
	}
	return nil
}

// groupFiles lists the loadable files of a group in lexical order.
func (idx *Indexer) groupFiles(group string) ([]string, error) {
	root := idx.config.SourceDir
	if group == RootGroup {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: read source directory: %w", models.ErrLoad, err)
		}
		var files []string
		for _, e := range entries {
			if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") && idx.allowed(e.Name()) {
				files = append(files, filepath.Join(root, e.Name()))
			}
		}
		return files, nil
	}
	dir := filepath.Join(root, group)
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && idx.allowed(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk group %s: %w", models.ErrLoad, group, err)
	}
	return files, nil
}

// sourcePath is path relative to the source directory, slash-separated.
func (idx *Indexer) sourcePath(path string) string {
	rel, err := filepath.Rel(idx.config.SourceDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (idx *Indexer) allowed(name string) bool {
	ext := filepath.Ext(name)
	if len(idx.config.Extensions) == 0 {
		return extract.Supported(ext)
	}
	return extensionAllowed(ext, idx.config.Extensions)
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
