package indexer

import "github.com/hyperjump/kotae/internal/models"

// AssignChunkIDs numbers chunks within each page and sets their ids. The
// sequence restarts at 0 whenever the (source, page) pair differs from the
// previous chunk, so chunks must be in document order.
func AssignChunkIDs(chunks []*models.Chunk) {
	var (
		lastSource string
		lastPage   int
		seq        int
	)
	for i, c := range chunks {
		if i > 0 && c.SourcePath == lastSource && c.Page == lastPage {
			seq++
		} else {
			seq = 0
		}
		c.Seq = seq
		c.ID = models.ChunkID(c.SourcePath, c.Page, seq)
		lastSource, lastPage = c.SourcePath, c.Page
	}
}
