package main

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/query"
	"github.com/hyperjump/kotae/internal/records"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Components holds initialized services. Records, Gate and Queries are only
// set when built with withQueries.
type Components struct {
	Chunks   vector.Store
	Embedder embedding.Embedder
	Keywords keyword.ChunkIndex
	Indexer  *indexer.Indexer
	Records  records.Store
	Gate     *retrieval.Gate
	Queries  *query.Service
}

func (c *Components) Close() {
	if c.Records != nil {
		_ = c.Records.Close()
	}
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Chunks != nil {
		_ = c.Chunks.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withQueries bool) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	metric, err := vector.ParseMetric(cfg.Retrieval.DistanceMetric)
	if err != nil {
		return nil, err
	}
	c.Chunks, err = vector.Open(cfg.Storage.IndexPath, cfg.Embedding.Dimensions, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk index: %w", err)
	}
	c.Embedder, err = embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Keywords, err = keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	logger.Debug("chunk index initialized",
		zap.String("path", cfg.Storage.IndexPath),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("dimensions", cfg.Embedding.Dimensions))

	c.Indexer = indexer.NewIndexer(c.Chunks, c.Embedder, extract.NewExtractor(), cfg.Ingest,
		indexer.WithLogger(logger),
		indexer.WithKeywordIndex(c.Keywords))

	if !withQueries {
		return c, nil
	}
	c.Records, err = records.Open(cfg.Storage.RecordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open query records: %w", err)
	}
	policy, err := retrieval.NewPolicy(cfg.Retrieval)
	if err != nil {
		return nil, err
	}
	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}
	c.Gate = retrieval.NewGate(c.Chunks, c.Embedder, policy, retrieval.DefaultTopK, retrieval.WithLogger(logger))
	c.Queries = query.NewService(c.Gate, answer.NewSynthesizer(model, logger), c.Records, query.WithLogger(logger))
	return c, nil
}
