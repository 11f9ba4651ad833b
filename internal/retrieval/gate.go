package retrieval

import (
	"context"
	"strings"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// ContextSeparator joins chunk texts in an accepted context.
const ContextSeparator = "\n\n---\n\n"

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = config.RetrievalTopK

// Result is the outcome of retrieval. When rejected, Context is empty and
// Sources is empty but non-nil.
type Result struct {
	Context  string               `json:"context"`
	Sources  []string             `json:"sources"`
	Accepted bool                 `json:"accepted"`
	Hits     []models.ScoredChunk `json:"hits"`
}

// Evaluate applies policy to hits. Empty hits are always rejected.
func Evaluate(policy Policy, hits []models.ScoredChunk) *Result {
	res := &Result{Sources: []string{}, Hits: hits}
	if len(hits) == 0 || !policy.Accept(hits) {
		return res
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
		res.Sources = append(res.Sources, h.Chunk.ID)
	}
	res.Context = strings.Join(texts, ContextSeparator)
	res.Accepted = true
	return res
}

// Gate embeds queries, searches the chunk index and applies a policy.
type Gate struct {
	store    vector.Store
	embedder embedding.Embedder
	policy   Policy
	topK     int
	logger   *zap.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets a logger for accept/reject decisions.
func WithLogger(l *zap.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a gate retrieving topK chunks (DefaultTopK when topK <= 0).
func NewGate(store vector.Store, embedder embedding.Embedder, policy Policy, topK int, opts ...GateOption) *Gate {
	if topK <= 0 {
		topK = DefaultTopK
	}
	g := &Gate{
		store:    store,
		embedder: embedder,
		policy:   policy,
		topK:     topK,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the active policy.
func (g *Gate) Policy() Policy { return g.policy }

// Retrieve finds the query's nearest chunks and applies the policy.
// Embedding and storage failures are returned unchanged.
func (g *Gate) Retrieve(ctx context.Context, query string) (*Result, error) {
	vec, err := g.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := g.store.Search(ctx, vec, g.topK)
	if err != nil {
		return nil, err
	}
	res := Evaluate(g.policy, hits)
	distances := make([]float64, len(hits))
	for i, h := range hits {
		distances[i] = h.Distance
	}
	g.logger.Debug("retrieval decision",
		zap.String("policy", g.policy.Name()),
		zap.Float64s("distances", distances),
		zap.Bool("accepted", res.Accepted))
	return res, nil
}
