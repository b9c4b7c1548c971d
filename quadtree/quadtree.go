// Package quadtree implements the recursive node structure of the spatial
// index: a fixed 4-way quadrant split with configurable leaf capacity.
//
// A Node holds up to Capacity items directly. Once full it subdivides into
// four equal quadrant children (northwest, northeast, southwest, southeast)
// and routes further insertions downward. Items already held at a level when
// it subdivides stay at that level; they are never redistributed. Removals
// that drain a whole subtree collapse the four children back into leaf state.
//
// Nodes are not safe for concurrent use. Callers that share a tree across
// goroutines must serialize access themselves.
package quadtree

import (
	"github.com/hupe1980/quadgo/geo"
)

// Item is an element stored in the tree. The tree only ever reads the
// position; it never copies or owns the item itself.
//
// Items are compared by identity (Go interface equality), not by coordinate
// equality. Use pointer types so two items at the same position stay distinct.
type Item interface {
	// Position returns the item's current coordinates.
	Position() geo.Point
}

// DefaultCapacity is the default number of items a node holds before it
// subdivides.
const DefaultCapacity = 4

// DefaultMinSize is the default edge length below which a node refuses to
// subdivide and grows its local slice instead. This bounds recursion depth on
// degenerate (tiny or zero-area) boundaries.
const DefaultMinSize = 1e-9

// Options contains configuration options for a tree.
type Options struct {
	// Capacity is the number of items a node holds before subdividing.
	Capacity int

	// MinSize is the subdivision floor: a node whose width or height is at or
	// below this value never subdivides.
	MinSize float64
}

// DefaultOptions contains the default configuration options for a tree.
var DefaultOptions = Options{
	Capacity: DefaultCapacity,
	MinSize:  DefaultMinSize,
}

// Node is a single quadrant's worth of the spatial index: a boundary, up to
// Capacity items, and four optional children. The four child slots are
// all-or-nothing: they are created together at subdivision and released
// together when the subtree drains.
type Node struct {
	bounds   geo.Rect
	capacity int
	minSize  float64
	items    []Item

	nw *Node
	ne *Node
	sw *Node
	se *Node
}

// New creates a root node with the given boundary.
func New(bounds geo.Rect, optFns ...func(o *Options)) *Node {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MinSize <= 0 {
		opts.MinSize = DefaultMinSize
	}

	return newNode(bounds, opts.Capacity, opts.MinSize)
}

func newNode(bounds geo.Rect, capacity int, minSize float64) *Node {
	return &Node{
		bounds:   bounds,
		capacity: capacity,
		minSize:  minSize,
		items:    make([]Item, 0, capacity),
	}
}

// Bounds returns the node's boundary.
func (n *Node) Bounds() geo.Rect {
	return n.bounds
}

// Capacity returns the node's leaf capacity.
func (n *Node) Capacity() int {
	return n.capacity
}

// MinSize returns the node's subdivision floor.
func (n *Node) MinSize() float64 {
	return n.minSize
}

// divided reports whether the node has children. Child slots are
// all-or-nothing, so checking one is enough.
func (n *Node) divided() bool {
	return n.nw != nil
}

// Add inserts an item into the subtree rooted at n. It returns false if the
// item's current position is not contained in n's boundary.
func (n *Node) Add(item Item) bool {
	if !n.bounds.ContainsPoint(item.Position()) {
		return false
	}

	if !n.divided() {
		if len(n.items) < n.capacity {
			n.items = append(n.items, item)
			return true
		}

		// Too small to split: grow in place rather than recurse forever.
		if n.bounds.Width() <= n.minSize || n.bounds.Height() <= n.minSize {
			n.items = append(n.items, item)
			return true
		}

		n.subdivide()
	}

	// The quadrants tile the boundary, so one of these succeeds. The final
	// false is a defensive no-op, not an error.
	return n.nw.Add(item) || n.ne.Add(item) || n.sw.Add(item) || n.se.Add(item)
}

// subdivide splits the boundary into four equal quadrants by the midpoint.
// The quadrant boundaries exactly tile the parent boundary, sharing edge
// coordinates at the midpoint. Items already held at this level stay here;
// only future insertions route to the children.
func (n *Node) subdivide() {
	min, max, c := n.bounds.Min, n.bounds.Max, n.bounds.Center()

	n.nw = newNode(geo.Rect{Min: min, Max: c}, n.capacity, n.minSize)
	n.ne = newNode(geo.Rect{Min: geo.Point{X: c.X, Y: min.Y}, Max: geo.Point{X: max.X, Y: c.Y}}, n.capacity, n.minSize)
	n.sw = newNode(geo.Rect{Min: geo.Point{X: min.X, Y: c.Y}, Max: geo.Point{X: c.X, Y: max.Y}}, n.capacity, n.minSize)
	n.se = newNode(geo.Rect{Min: c, Max: max}, n.capacity, n.minSize)
}

// Remove removes an item from the subtree by identity, locating it via the
// item's current position. It returns true iff an item was removed.
//
// If the item has moved since it was added, its current position may no
// longer fall under the branch that holds it; use RemoveAt with the stale
// position in that case.
func (n *Node) Remove(item Item) bool {
	return n.removeAt(item, item.Position())
}

// RemoveAt is like Remove but locates the item via an explicitly supplied
// position instead of the item's live position. Callers relocating a moved
// item pass the position at which the item was last indexed.
func (n *Node) RemoveAt(item Item, p geo.Point) bool {
	return n.removeAt(item, p)
}

func (n *Node) removeAt(item Item, p geo.Point) bool {
	if !n.bounds.ContainsPoint(p) {
		return false
	}

	for i, held := range n.items {
		if held == item {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}

	if !n.divided() {
		return false
	}

	removed := n.nw.removeAt(item, p) || n.ne.removeAt(item, p) ||
		n.sw.removeAt(item, p) || n.se.removeAt(item, p)
	if removed {
		n.clean()
	}
	return removed
}

// clean collapses the four children back into leaf state once they are all
// empty. This bounds tree depth growth from insert/remove churn.
func (n *Node) clean() {
	if !n.divided() {
		return
	}
	if n.nw.Len()+n.ne.Len()+n.sw.Len()+n.se.Len() != 0 {
		return
	}
	n.nw, n.ne, n.sw, n.se = nil, nil, nil, nil
}

// Query appends every item in the subtree whose position is contained in
// region to dst and returns the extended slice. If the node's boundary does
// not overlap the region the result is dst unchanged.
//
// The result order is deterministic for a given tree state: local items in
// insertion order, then the NW, NE, SW, SE subtrees. No other ordering is
// guaranteed. An item lives in exactly one node, so no deduplication is
// needed.
func (n *Node) Query(region geo.Rect, dst []Item) []Item {
	if !n.bounds.Intersects(region) {
		return dst
	}

	for _, item := range n.items {
		if region.ContainsPoint(item.Position()) {
			dst = append(dst, item)
		}
	}

	if n.divided() {
		dst = n.nw.Query(region, dst)
		dst = n.ne.Query(region, dst)
		dst = n.sw.Query(region, dst)
		dst = n.se.Query(region, dst)
	}
	return dst
}

// Len returns the total number of items in the subtree.
func (n *Node) Len() int {
	count := len(n.items)
	if n.divided() {
		count += n.nw.Len() + n.ne.Len() + n.sw.Len() + n.se.Len()
	}
	return count
}

// AllBounds appends the node's boundary followed by all child boundaries in
// NW, NE, SW, SE order to dst and returns the extended slice. Intended for
// diagnostics and visualization.
func (n *Node) AllBounds(dst []geo.Rect) []geo.Rect {
	dst = append(dst, n.bounds)
	if n.divided() {
		dst = n.nw.AllBounds(dst)
		dst = n.ne.AllBounds(dst)
		dst = n.sw.AllBounds(dst)
		dst = n.se.AllBounds(dst)
	}
	return dst
}
