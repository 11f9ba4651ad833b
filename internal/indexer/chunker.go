// Package indexer splits loaded documents into chunks and ingests them into
// the chunk index, one document group at a time.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/models"
)

// separators are tried in order; the empty separator splits into single characters.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text into pieces of at most chunkSize characters, consecutive
// pieces sharing up to chunkOverlap characters. It prefers to break at
// paragraph, then line, then word boundaries.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 600
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Split breaks text into chunks. Whitespace-only text yields nil.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, separators)
}

// ChunkPages splits every page independently, so no chunk spans two pages.
// Chunks come back in page order without ids; see AssignChunkIDs.
func (c *Chunker) ChunkPages(pages []models.Page) []*models.Chunk {
	var chunks []*models.Chunk
	for _, p := range pages {
		for _, text := range c.Split(Preprocess(p.Text)) {
			chunks = append(chunks, &models.Chunk{
				SourcePath: p.SourcePath,
				Page:       p.Number,
				Text:       text,
			})
		}
	}
	return chunks
}

func (c *Chunker) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, s := range seps {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var final, small []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) < c.chunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			final = append(final, c.merge(small)...)
			small = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, c.split(piece, rest)...)
		}
	}
	if len(small) > 0 {
		final = append(final, c.merge(small)...)
	}
	return final
}

// merge packs consecutive pieces into chunks, carrying up to chunkOverlap
// characters of trailing pieces into the next chunk.
func (c *Chunker) merge(pieces []string) []string {
	var (
		docs  []string
		cur   []string
		total int
	)
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > c.chunkSize && len(cur) > 0 {
			if doc := strings.TrimSpace(strings.Join(cur, "")); doc != "" {
				docs = append(docs, doc)
			}
			for len(cur) > 0 && (total > c.chunkOverlap || total+n > c.chunkSize) {
				total -= utf8.RuneCountInString(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(cur, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeep splits text on sep, keeping sep at the start of every piece after
// the first. Empty pieces are dropped.
func splitKeep(text, sep string) []string {
	var out []string
	if sep == "" {
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	for i, p := range strings.Split(text, sep) {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
