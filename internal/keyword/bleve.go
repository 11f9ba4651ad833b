package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	kwanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kotae/internal/models"
)

// BleveIndex implements ChunkIndex using Bleve. An empty path keeps the index in memory.
type BleveIndex struct {
	path  string
	index bleve.Index
	mu    sync.RWMutex
}

// chunkDoc is the indexed form of a chunk.
type chunkDoc struct {
	Content    string `json:"content"`
	SourcePath string `json:"source_path"`
	Page       int    `json:"page"`
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	// Standard analyzer: lowercase and tokenize without stemming, so product
	// names and phone numbers match as typed.
	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.IncludeTermVectors = true
	doc.AddFieldMappingsAt("content", content)

	source := bleve.NewTextFieldMapping()
	source.Analyzer = kwanalyzer.Name
	doc.AddFieldMappingsAt("source_path", source)

	doc.AddFieldMappingsAt("page", bleve.NewNumericFieldMapping())

	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, reset the index to rebuild it.
func NewBleveIndex(path string) (*BleveIndex, error) {
	idx, err := openBleve(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{path: path, index: idx}, nil
}

func openBleve(path string) (bleve.Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return idx, nil
	}
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", err)
		}
		return idx, nil
	}
	idx, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return idx, nil
}

// IndexChunks adds chunks in a single Bleve batch. Re-indexing an id replaces it.
func (b *BleveIndex) IndexChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	batch := b.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, chunkDoc{Content: c.Text, SourcePath: c.SourcePath, Page: c.Page}); err != nil {
			return fmt.Errorf("failed to batch chunk %s: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}

// Search runs a match query (or per-term fuzzy queries) over chunk content.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	var q blevequery.Query
	if opts.FuzzyEnabled {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 2
		}
		q = buildFuzzyQuery(query, fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField("content")
		q = mq
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"source_path", "page"}
	if opts.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("content")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		r := &Result{ID: hit.ID, Score: hit.Score, Fragments: hit.Fragments["content"]}
		if s, ok := hit.Fields["source_path"].(string); ok {
			r.SourcePath = s
		}
		if p, ok := hit.Fields["page"].(float64); ok {
			r.Page = int(p)
		}
		out[i] = r
	}
	return out, nil
}

// tokenizeQuery lowercases and splits on anything that is not a letter or digit.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// buildFuzzyQuery ORs one fuzzy query per term, mirroring match query semantics.
func buildFuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		mq.SetField("content")
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField("content")
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Reset closes the index, removes it from disk and recreates it empty.
func (b *BleveIndex) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close Bleve index: %w", err)
	}
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			return fmt.Errorf("failed to remove Bleve index: %w", err)
		}
	}
	idx, err := openBleve(b.path)
	if err != nil {
		return err
	}
	b.index = idx
	return nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
