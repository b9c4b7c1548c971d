package quadgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// ok is false if the item was a duplicate or outside the boundary.
	RecordAdd(duration time.Duration, ok bool)

	// RecordAddRange is called after each bulk add operation.
	// count is the number of items attempted, added the number indexed.
	RecordAddRange(count, added int, duration time.Duration)

	// RecordRemove is called after each remove operation.
	RecordRemove(duration time.Duration, ok bool)

	// RecordQuery is called after each range query.
	// results is the number of items returned.
	RecordQuery(results int, duration time.Duration)

	// RecordMoved is called after each relocation.
	RecordMoved(duration time.Duration, ok bool)

	// RecordUpdateAll is called after each full-index relocation sweep.
	// moved is the number of items that were relocated.
	RecordUpdateAll(moved int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, bool)           {}
func (NoopMetricsCollector) RecordAddRange(int, int, time.Duration)  {}
func (NoopMetricsCollector) RecordRemove(time.Duration, bool)        {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration)          {}
func (NoopMetricsCollector) RecordMoved(time.Duration, bool)         {}
func (NoopMetricsCollector) RecordUpdateAll(int, time.Duration)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddRejected      atomic.Int64
	AddTotalNanos    atomic.Int64
	AddRangeCount    atomic.Int64
	AddRangeItems    atomic.Int64
	AddRangeRejected atomic.Int64
	RemoveCount      atomic.Int64
	RemoveMisses     atomic.Int64
	QueryCount       atomic.Int64
	QueryResults     atomic.Int64
	QueryTotalNanos  atomic.Int64
	MovedCount       atomic.Int64
	MovedMisses      atomic.Int64
	UpdateAllCount   atomic.Int64
	UpdateAllMoved   atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, ok bool) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if !ok {
		b.AddRejected.Add(1)
	}
}

// RecordAddRange implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddRange(count, added int, duration time.Duration) {
	b.AddRangeCount.Add(1)
	b.AddRangeItems.Add(int64(count))
	b.AddRangeRejected.Add(int64(count - added))
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, ok bool) {
	b.RemoveCount.Add(1)
	if !ok {
		b.RemoveMisses.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(results int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// RecordMoved implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMoved(duration time.Duration, ok bool) {
	b.MovedCount.Add(1)
	if !ok {
		b.MovedMisses.Add(1)
	}
}

// RecordUpdateAll implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdateAll(moved int, duration time.Duration) {
	b.UpdateAllCount.Add(1)
	b.UpdateAllMoved.Add(int64(moved))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddRejected:    b.AddRejected.Load(),
		AddAvgNanos:    avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveMisses:   b.RemoveMisses.Load(),
		QueryCount:     b.QueryCount.Load(),
		QueryResults:   b.QueryResults.Load(),
		QueryAvgNanos:  avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		MovedCount:     b.MovedCount.Load(),
		MovedMisses:    b.MovedMisses.Load(),
		UpdateAllCount: b.UpdateAllCount.Load(),
		UpdateAllMoved: b.UpdateAllMoved.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddRejected    int64
	AddAvgNanos    int64
	RemoveCount    int64
	RemoveMisses   int64
	QueryCount     int64
	QueryResults   int64
	QueryAvgNanos  int64
	MovedCount     int64
	MovedMisses    int64
	UpdateAllCount int64
	UpdateAllMoved int64
}
