package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/records"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/vector"
)

const dims = 16

type failingRecords struct{ records.Store }

func (failingRecords) Save(ctx context.Context, rec *models.QueryRecord) error {
	return models.ErrStorage
}

// newService indexes texts with the mock embedder so that a query equal to
// one of them is found at distance zero.
func newService(t *testing.T, model *llm.Mock, store records.Store, texts ...string) *Service {
	t.Helper()
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(dims)
	idx, err := vector.NewMemoryStore(dims, vector.MetricL2)
	require.NoError(t, err)
	entries := make([]vector.Entry, len(texts))
	for i, text := range texts {
		v, err := emb.Embed(ctx, text)
		require.NoError(t, err)
		entries[i] = vector.Entry{
			Chunk:  &models.Chunk{ID: models.ChunkID("faq.pdf", 0, i), SourcePath: "faq.pdf", Seq: i, Text: text},
			Vector: v,
		}
	}
	require.NoError(t, idx.InsertBatch(ctx, entries))
	gate := retrieval.NewGate(idx, emb, retrieval.AbsolutePolicy{Threshold: 0.4}, 3)
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	return NewService(gate, answer.NewSynthesizer(model, nil), store, WithClock(clock))
}

func TestService_SubmitGrounded(t *testing.T) {
	ctx := context.Background()
	model := &llm.Mock{Reply: "Call the customer care hotline."}
	store := records.NewMemoryStore()
	svc := newService(t, model, store, "How can I contact Maybank?", "Opening hours", "Card fees")

	rec, err := svc.Submit(ctx, "  How can I contact Maybank?  ")
	require.NoError(t, err)
	assert.True(t, rec.IsComplete)
	assert.Equal(t, "How can I contact Maybank?", rec.QueryText)
	assert.Equal(t, int64(1700000000), rec.CreateTime)
	assert.Equal(t, "Call the customer care hotline.", rec.Answer())
	assert.Contains(t, rec.Sources, "faq.pdf:0:0")
	assert.Len(t, rec.Sources, 3)
	assert.Contains(t, model.Prompts()[0], "based only on the following context")

	got, ok, err := svc.Get(ctx, rec.QueryID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestService_SubmitUngrounded(t *testing.T) {
	ctx := context.Background()
	model := &llm.Mock{Reply: "Hello!"}
	svc := newService(t, model, records.NewMemoryStore())

	rec, err := svc.Submit(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, rec.IsComplete)
	assert.Equal(t, []string{}, rec.Sources)
	assert.Equal(t, []string{"You are a helpful assistant. User said: hi"}, model.Prompts())
}

// axisEmbedder maps every text to the first unit axis.
type axisEmbedder struct{ embedding.Embedder }

func (axisEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, dims)
	v[0] = 1
	return v, nil
}

func TestService_SubmitRejectedHits(t *testing.T) {
	ctx := context.Background()
	idx, err := vector.NewMemoryStore(dims, vector.MetricL2)
	require.NoError(t, err)
	entries := make([]vector.Entry, 3)
	for i := range entries {
		// Orthogonal to the query: squared distance 2, above the 0.4 threshold.
		v := make([]float32, dims)
		v[i+1] = 1
		entries[i] = vector.Entry{
			Chunk:  &models.Chunk{ID: models.ChunkID("faq.pdf", 0, i), SourcePath: "faq.pdf", Seq: i, Text: "Card fees"},
			Vector: v,
		}
	}
	require.NoError(t, idx.InsertBatch(ctx, entries))
	gate := retrieval.NewGate(idx, axisEmbedder{}, retrieval.AbsolutePolicy{Threshold: 0.4}, 3)
	model := &llm.Mock{Reply: "Hello!"}
	svc := NewService(gate, answer.NewSynthesizer(model, nil), records.NewMemoryStore())

	rec, err := svc.Submit(ctx, "What is the weather today?")
	require.NoError(t, err)
	assert.True(t, rec.IsComplete)
	assert.NotNil(t, rec.Sources)
	assert.Equal(t, []string{}, rec.Sources)
	assert.Equal(t, []string{"You are a helpful assistant. User said: What is the weather today?"}, model.Prompts())
	assert.NotContains(t, model.Prompts()[0], "Card fees")
}

func TestService_SubmitEmpty(t *testing.T) {
	model := llm.NewMock()
	svc := newService(t, model, records.NewMemoryStore())
	_, err := svc.Submit(context.Background(), "   ")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Empty(t, model.Prompts(), "no model call for invalid input")
}

func TestService_ModelFailureSavesNothing(t *testing.T) {
	store := records.NewMemoryStore()
	svc := newService(t, &llm.Mock{Err: errors.New("overloaded")}, store, "a chunk")

	_, err := svc.Submit(context.Background(), "a chunk")
	assert.True(t, errors.Is(err, models.ErrModelService))
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_StorageFailurePropagates(t *testing.T) {
	svc := newService(t, llm.NewMock(), failingRecords{records.NewMemoryStore()})
	_, err := svc.Submit(context.Background(), "question")
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestService_CancelledBeforeSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := records.NewMemoryStore()
	svc := newService(t, llm.NewMock(), store)
	_, err := svc.Submit(ctx, "question")
	assert.Error(t, err)
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestService_GetUnknown(t *testing.T) {
	svc := newService(t, llm.NewMock(), records.NewMemoryStore())
	rec, ok, err := svc.Get(context.Background(), "ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}
