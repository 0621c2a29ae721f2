package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/config"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/fetcher"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/resilience"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/store"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/summary"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/pkg/anthropic"
)

// initStore opens and migrates the configured store. Returns nil when the
// driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

func joinConfig(c config.JoinConfig) (geo.JoinConfig, error) {
	m, err := geo.ParseMetric(c.Metric)
	if err != nil {
		return geo.JoinConfig{}, err
	}
	return geo.JoinConfig{Metric: m, LeafSize: c.LeafSize, Concurrency: c.Concurrency}, nil
}

func newLoader(c config.DataConfig) *dataset.Loader {
	return dataset.NewLoader(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), c.TempDir)
}

// newSummarizer returns nil when no API key is configured.
func newSummarizer(c config.AnthropicConfig) *summary.Summarizer {
	if c.Key == "" {
		zap.L().Info("anthropic key not set, skipping summary")
		return nil
	}
	return summary.New(anthropic.NewClient(c.Key), summary.Options{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Retry:       resilience.NewRetryConfig(c.MaxRetries, c.RetryBackoffMs),
	})
}
