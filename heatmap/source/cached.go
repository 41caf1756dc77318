package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/metrics"
)

// DefaultLoadTimeout bounds a single load of Cached.
const DefaultLoadTimeout = 30 * time.Second

// Cached loads dataset once and keeps it.
// Failed loads are not cached, next call loads again.
// Load runs detached from caller cancellation, bounded by Timeout.
type Cached struct {
	Source  Source
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Timeout time.Duration

	mu      sync.Mutex
	dataset *heatmap.Dataset
}

func NewCached(src Source, logger *zap.Logger, m *metrics.Collector) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Source: src, Logger: logger, Metrics: m, Timeout: DefaultLoadTimeout}
}

func (c *Cached) Load(ctx context.Context) (*heatmap.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dataset != nil {
		return c.dataset, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	dataset, err := c.Source.Load(loadCtx)
	if err != nil {
		c.Metrics.ObserveFetch(time.Since(start), 0, err)
		c.Logger.Error("can not load dataset", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}
	c.Metrics.ObserveFetch(time.Since(start), len(dataset.Records), nil)
	c.Logger.Info("dataset loaded",
		zap.Int("records", len(dataset.Records)),
		zap.Float64("base_temperature", dataset.BaseTemperature),
		zap.Duration("duration", time.Since(start)),
	)

	c.dataset = dataset
	return dataset, nil
}
