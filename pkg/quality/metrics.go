package quality

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives one event per scored image.
// Implement this interface to integrate with monitoring systems; PrometheusCollector is the
// bundled one.
type MetricsCollector interface {
	// RecordScore is called after each image. blocks is the number of feature rows, nonFinite
	// the number of rows that carried non-finite features, err is nil on success.
	RecordScore(metric string, blocks, nonFinite int, duration time.Duration, err error)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScore(string, int, int, time.Duration, error) {}

// BasicMetricsCollector keeps in-memory counters.
type BasicMetricsCollector struct {
	ScoreCount      atomic.Int64
	ScoreErrors     atomic.Int64
	ScoreTotalNanos atomic.Int64
	Blocks          atomic.Int64
	NonFiniteBlocks atomic.Int64
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(_ string, blocks, nonFinite int, duration time.Duration, err error) {
	b.ScoreCount.Add(1)
	b.ScoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScoreErrors.Add(1)
		return
	}
	b.Blocks.Add(int64(blocks))
	b.NonFiniteBlocks.Add(int64(nonFinite))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		ScoreCount:      b.ScoreCount.Load(),
		ScoreErrors:     b.ScoreErrors.Load(),
		Blocks:          b.Blocks.Load(),
		NonFiniteBlocks: b.NonFiniteBlocks.Load(),
	}
	if stats.ScoreCount > 0 {
		stats.ScoreAvgNanos = b.ScoreTotalNanos.Load() / stats.ScoreCount
	}
	return stats
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScoreCount      int64
	ScoreErrors     int64
	ScoreAvgNanos   int64
	Blocks          int64
	NonFiniteBlocks int64
}
