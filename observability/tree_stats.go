package observability

import (
	"context"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	MetricTreeInsert   = "rbtree.ops.insert"
	MetricTreeDelete   = "rbtree.ops.delete"
	MetricTreeSearch   = "rbtree.ops.search"
	MetricTreeNotFound = "rbtree.ops.not_found"
	MetricTreeSize     = "rbtree.size"
	MetricTreeHeight   = "rbtree.height"
)

var (
	opDelete = metric.WithAttributes(attribute.String("op", "delete"))
	opSearch = metric.WithAttributes(attribute.String("op", "search"))
)

// TreeStats records the tree operations. The shape gauges are observed
// from the last SetShape call, so the reader never touches the tree
// itself. A nil *TreeStats records nothing.
type TreeStats struct {
	inserts      metric.Int64Counter
	deletes      metric.Int64Counter
	searches     metric.Int64Counter
	notFound     metric.Int64Counter
	size         metric.Int64ObservableGauge
	height       metric.Int64ObservableGauge
	registration metric.Registration

	lastSize   atomic.Int64
	lastHeight atomic.Int64
}

func NewTreeStats(meter metric.Meter) *TreeStats {
	stats := &TreeStats{
		inserts: lo.Must[metric.Int64Counter](meter.Int64Counter(
			MetricTreeInsert,
			metric.WithDescription("Inserted keys."),
		)),
		deletes: lo.Must[metric.Int64Counter](meter.Int64Counter(
			MetricTreeDelete,
			metric.WithDescription("Deleted keys."),
		)),
		searches: lo.Must[metric.Int64Counter](meter.Int64Counter(
			MetricTreeSearch,
			metric.WithDescription("Key lookups."),
		)),
		notFound: lo.Must[metric.Int64Counter](meter.Int64Counter(
			MetricTreeNotFound,
			metric.WithDescription("Deletes and lookups of absent keys."),
		)),
		size: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			MetricTreeSize,
			metric.WithDescription("Keys in the tree."),
		)),
		height: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			MetricTreeHeight,
			metric.WithDescription("Longest root to leaf path in nodes."),
		)),
	}
	stats.registration = lo.Must[metric.Registration](meter.RegisterCallback(
		func(ctx context.Context, ob metric.Observer) error {
			ob.ObserveInt64(stats.size, stats.lastSize.Load())
			ob.ObserveInt64(stats.height, stats.lastHeight.Load())
			return nil
		},
		stats.size,
		stats.height,
	))
	return stats
}

func (stats *TreeStats) RecordInsert(ctx context.Context, n int) {
	if stats == nil || n <= 0 {
		return
	}
	stats.inserts.Add(ctx, int64(n))
}

func (stats *TreeStats) RecordDelete(ctx context.Context, found bool) {
	if stats == nil {
		return
	}
	if !found {
		stats.notFound.Add(ctx, 1, opDelete)
		return
	}
	stats.deletes.Add(ctx, 1)
}

func (stats *TreeStats) RecordSearch(ctx context.Context, found bool) {
	if stats == nil {
		return
	}
	stats.searches.Add(ctx, 1)
	if !found {
		stats.notFound.Add(ctx, 1, opSearch)
	}
}

func (stats *TreeStats) SetShape(size int64, height int) {
	if stats == nil {
		return
	}
	stats.lastSize.Store(size)
	stats.lastHeight.Store(int64(height))
}

func (stats *TreeStats) Close() error {
	if stats == nil || stats.registration == nil {
		return nil
	}
	return stats.registration.Unregister()
}
