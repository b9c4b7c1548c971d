package quadgo

import (
	"iter"
	"time"

	"github.com/hupe1980/quadgo/geo"
	"github.com/hupe1980/quadgo/internal/ids"
	"github.com/hupe1980/quadgo/quadtree"
	"github.com/hupe1980/quadgo/tagindex"
)

// Item is an element stored in the index. See quadtree.Item.
type Item = quadtree.Item

// entry is what the index remembers about a tracked item: the position it
// was last indexed at and its internal handle.
type entry struct {
	pos geo.Point
	id  uint32
}

// Index is the public spatial container: a root quadtree node plus a
// position-tracking map used to support item relocation, and a tag inverted
// index for filtered queries.
//
// The tracking map is the single source of truth for "is this item indexed"
// and for "where does the tree believe this item is". It is keyed by item
// identity, so the dynamic type of stored items must be comparable (use
// pointers).
//
// An Index is not safe for concurrent use; see the package documentation.
type Index struct {
	root    *quadtree.Node
	tracked map[Item]entry
	alloc   *ids.Allocator
	tags    *tagindex.Index
	metrics MetricsCollector
	logger  *Logger
}

// New creates an index covering the given outer boundary.
func New(bounds geo.Rect, optFns ...Option) *Index {
	opts := applyOptions(optFns)

	root := quadtree.New(bounds, func(o *quadtree.Options) {
		o.Capacity = opts.capacity
		o.MinSize = opts.minNodeSize
	})

	return &Index{
		root:    root,
		tracked: make(map[Item]entry),
		alloc:   ids.New(),
		tags:    tagindex.New(),
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}
}

// NewXY creates an index covering the boundary with origin (x, y) and the
// given width and height. It returns an error for a malformed boundary.
func NewXY(x, y, w, h float64, optFns ...Option) (*Index, error) {
	bounds, err := geo.NewRect(x, y, w, h)
	if err != nil {
		return nil, err
	}
	return New(bounds, optFns...), nil
}

// Add indexes the item at its current position. It returns false if the item
// is already tracked or its position lies outside the outer boundary; both
// are silent no-ops, not errors.
func (ix *Index) Add(item Item) bool {
	return ix.AddTagged(item)
}

// AddTagged is like Add but additionally records the item under the given
// tags for use with QueryTagged.
func (ix *Index) AddTagged(item Item, tags ...string) bool {
	start := time.Now()
	ok := ix.add(item, tags)
	ix.metrics.RecordAdd(time.Since(start), ok)
	ix.logger.LogAdd(item.Position(), tags, ok)
	return ok
}

func (ix *Index) add(item Item, tags []string) bool {
	if _, ok := ix.tracked[item]; ok {
		return false
	}
	if !ix.root.Add(item) {
		// Point outside the universe: deliberately not indexed, not tracked.
		return false
	}

	id := ix.alloc.Alloc()
	ix.tracked[item] = entry{pos: item.Position(), id: id}
	ix.tags.Add(id, tags...)
	return true
}

// AddRange indexes every item in the slice and returns the number actually
// indexed. Duplicates and out-of-boundary items are skipped; a rejection on
// one item does not affect the others.
func (ix *Index) AddRange(items []Item) int {
	start := time.Now()

	added := 0
	for _, item := range items {
		if ix.add(item, nil) {
			added++
		}
	}

	ix.metrics.RecordAddRange(len(items), added, time.Since(start))
	ix.logger.LogAddRange(len(items), added)
	return added
}

// Remove removes the item, locating it in the tree via its live position.
// It returns false for untracked items, or when the item's live position has
// diverged from its recorded position without a Moved call (use Moved, or
// Remove after Moved, to recover).
func (ix *Index) Remove(item Item) bool {
	start := time.Now()
	ok := ix.remove(item)
	ix.metrics.RecordRemove(time.Since(start), ok)
	ix.logger.LogRemove(ok)
	return ok
}

func (ix *Index) remove(item Item) bool {
	e, ok := ix.tracked[item]
	if !ok {
		return false
	}
	if !ix.root.Remove(item) {
		return false
	}

	delete(ix.tracked, item)
	ix.tags.Remove(e.id)
	ix.alloc.Release(e.id)
	return true
}

// Contains reports whether the item is currently indexed. O(1).
func (ix *Index) Contains(item Item) bool {
	_, ok := ix.tracked[item]
	return ok
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	return len(ix.tracked)
}

// Clear removes all items, resetting the tree to a single empty root node.
func (ix *Index) Clear() {
	ix.root = quadtree.New(ix.root.Bounds(), func(o *quadtree.Options) {
		o.Capacity = ix.root.Capacity()
		o.MinSize = ix.root.MinSize()
	})
	ix.tracked = make(map[Item]entry)
	ix.tags.Clear()
	ix.alloc.Reset()
}

// Query returns every indexed item whose position is contained in region.
// The result order is deterministic for a given tree state but carries no
// external ordering guarantee.
func (ix *Index) Query(region geo.Rect) []Item {
	start := time.Now()
	items := ix.root.Query(region, nil)
	ix.metrics.RecordQuery(len(items), time.Since(start))
	ix.logger.LogQuery(region, len(items), time.Since(start))
	return items
}

// QueryXY is like Query with the region given as origin plus width/height.
// A malformed region returns no items.
func (ix *Index) QueryXY(x, y, w, h float64) []Item {
	region, err := geo.NewRect(x, y, w, h)
	if err != nil {
		return nil
	}
	return ix.Query(region)
}

// QueryCorners is like Query with the region given as min and max corners.
// A malformed region returns no items.
func (ix *Index) QueryCorners(min, max geo.Point) []Item {
	region, err := geo.RectFromPoints(min, max)
	if err != nil {
		return nil
	}
	return ix.Query(region)
}

// QueryTagged returns every indexed item inside region that was added under
// the given tag.
func (ix *Index) QueryTagged(region geo.Rect, tag string) []Item {
	start := time.Now()

	items := ix.root.Query(region, nil)
	matched := items[:0]
	for _, item := range items {
		if e, ok := ix.tracked[item]; ok && ix.tags.Matches(tag, e.id) {
			matched = append(matched, item)
		}
	}

	ix.metrics.RecordQuery(len(matched), time.Since(start))
	ix.logger.LogQuery(region, len(matched), time.Since(start))
	return matched
}

// Moved relocates an item whose position changed since it was indexed: the
// item is removed from the tree at its last recorded position and re-added
// at its current position.
//
// It returns false if the item is untracked, or if the item could not be
// found at its recorded position (a desynchronized item; remove and re-add
// it manually to recover). On false the tree and tracking map are unchanged.
//
// If the item's current position now lies outside the outer boundary the
// item is dropped from the index entirely, mirroring Add's outside-universe
// policy, and Moved still returns true.
func (ix *Index) Moved(item Item) bool {
	start := time.Now()
	ok := ix.moved(item)
	ix.metrics.RecordMoved(time.Since(start), ok)
	ix.logger.LogMoved(ok)
	return ok
}

func (ix *Index) moved(item Item) bool {
	e, ok := ix.tracked[item]
	if !ok {
		return false
	}
	if !ix.root.RemoveAt(item, e.pos) {
		return false
	}

	if ix.root.Add(item) {
		e.pos = item.Position()
		ix.tracked[item] = e
		return true
	}

	// Moved outside the universe.
	delete(ix.tracked, item)
	ix.tags.Remove(e.id)
	ix.alloc.Release(e.id)
	return true
}

// MovedAll applies Moved to each item and returns the number relocated.
// There is no atomicity across the batch; a failure on one item does not
// affect the others.
func (ix *Index) MovedAll(items []Item) int {
	moved := 0
	for _, item := range items {
		if ix.Moved(item) {
			moved++
		}
	}
	return moved
}

// UpdateAll sweeps the whole index, relocating every item whose live
// position differs from its recorded position, and returns the number
// relocated.
//
// This is an O(n) fallback for callers unwilling to track per-item movement.
// The primary relocation path is an explicit Moved call for every item that
// moved, before the next query.
func (ix *Index) UpdateAll() int {
	start := time.Now()

	stale := make([]Item, 0)
	for item, e := range ix.tracked {
		if item.Position() != e.pos {
			stale = append(stale, item)
		}
	}

	moved := 0
	for _, item := range stale {
		if ix.moved(item) {
			moved++
		}
	}

	ix.metrics.RecordUpdateAll(moved, time.Since(start))
	ix.logger.LogUpdateAll(len(ix.tracked), moved, time.Since(start))
	return moved
}

// Items returns an iterator over all indexed items.
// Iteration order is not specified.
func (ix *Index) Items() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for item := range ix.tracked {
			if !yield(item) {
				return
			}
		}
	}
}

// CopyInto copies indexed items into dst, stopping when either dst is full
// or all items have been copied, and returns the number copied.
func (ix *Index) CopyInto(dst []Item) int {
	n := 0
	for item := range ix.tracked {
		if n >= len(dst) {
			break
		}
		dst[n] = item
		n++
	}
	return n
}

// Recorded returns the position the index last recorded for the item, which
// may differ from the item's live position until Moved is called.
func (ix *Index) Recorded(item Item) (geo.Point, bool) {
	e, ok := ix.tracked[item]
	return e.pos, ok
}

// TagsOf returns the tags the item was added under, sorted.
func (ix *Index) TagsOf(item Item) []string {
	e, ok := ix.tracked[item]
	if !ok {
		return nil
	}
	return ix.tags.TagsOf(e.id)
}

// Bounds returns the outer boundary of the index.
func (ix *Index) Bounds() geo.Rect {
	return ix.root.Bounds()
}

// Capacity returns the per-node leaf capacity.
func (ix *Index) Capacity() int {
	return ix.root.Capacity()
}

// MinNodeSize returns the subdivision floor.
func (ix *Index) MinNodeSize() float64 {
	return ix.root.MinSize()
}

// AllBounds returns the boundaries of every node in the tree, root first.
// Intended for diagnostics and visualization.
func (ix *Index) AllBounds() []geo.Rect {
	return ix.root.AllBounds(nil)
}
