package quadtree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quadgo/geo"
)

type point struct {
	x, y float64
}

func (p *point) Position() geo.Point { return geo.Pt(p.x, p.y) }

func pts(items []Item) []*point {
	out := make([]*point, len(items))
	for i, it := range items {
		out[i] = it.(*point)
	}
	return out
}

func TestNodeAdd(t *testing.T) {
	t.Run("inside boundary", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		require.True(t, n.Add(&point{5, 5}))
		assert.Equal(t, 1, n.Len())
	})

	t.Run("boundary edges inclusive", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		assert.True(t, n.Add(&point{0, 0}))
		assert.True(t, n.Add(&point{10, 10}))
		assert.True(t, n.Add(&point{0, 10}))
		assert.True(t, n.Add(&point{10, 0}))
	})

	t.Run("outside boundary", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		assert.False(t, n.Add(&point{-1, 5}))
		assert.False(t, n.Add(&point{5, 11}))
		assert.Equal(t, 0, n.Len())
	})

	t.Run("duplicate identity is not deduplicated", func(t *testing.T) {
		// The node layer has no tracking map; dedup is the index's job.
		n := New(geo.MustRect(0, 0, 10, 10))
		p := &point{3, 3}
		require.True(t, n.Add(p))
		require.True(t, n.Add(p))
		assert.Equal(t, 2, n.Len())
	})
}

func TestNodeSubdivision(t *testing.T) {
	t.Run("no split at capacity", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 4 })
		for i := 0; i < 4; i++ {
			require.True(t, n.Add(&point{float64(i), float64(i)}))
		}
		assert.Len(t, n.AllBounds(nil), 1)
	})

	t.Run("split on overflow", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 4 })
		for i := 0; i < 4; i++ {
			require.True(t, n.Add(&point{float64(i + 1), float64(i + 1)}))
		}
		require.True(t, n.Add(&point{5, 5}))

		bounds := n.AllBounds(nil)
		require.Len(t, bounds, 5)
		assert.Equal(t, geo.MustRect(0, 0, 20, 20), bounds[0])
		assert.Equal(t, geo.MustRect(0, 0, 10, 10), bounds[1])   // NW
		assert.Equal(t, geo.MustRect(10, 0, 10, 10), bounds[2])  // NE
		assert.Equal(t, geo.MustRect(0, 10, 10, 10), bounds[3])  // SW
		assert.Equal(t, geo.MustRect(10, 10, 10, 10), bounds[4]) // SE

		assert.Equal(t, 5, n.Len())
	})

	t.Run("five points across quadrants", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 4 })
		for _, p := range []*point{{1, 1}, {2, 2}, {3, 3}, {4, 4}} {
			require.True(t, n.Add(p))
		}
		require.Len(t, n.AllBounds(nil), 1)

		// The fifth insertion triggers exactly one subdivision.
		require.True(t, n.Add(&point{19, 19}))
		require.Len(t, n.AllBounds(nil), 5)

		assert.Len(t, n.Query(geo.MustRect(0, 0, 20, 20), nil), 5)
		assert.Len(t, n.Query(geo.MustRect(0, 0, 5, 5), nil), 4)
		assert.Len(t, n.Query(geo.MustRect(15, 15, 5, 5), nil), 1)
	})

	t.Run("existing items stay at their level", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 2 })
		a, b := &point{1, 1}, &point{2, 2}
		require.True(t, n.Add(a))
		require.True(t, n.Add(b))
		require.True(t, n.Add(&point{15, 15}))

		// The first two items are still findable, and the whole tree holds 3.
		got := n.Query(geo.MustRect(0, 0, 5, 5), nil)
		assert.ElementsMatch(t, []*point{a, b}, pts(got))
		assert.Equal(t, 3, n.Len())
	})

	t.Run("overflow routes into matching quadrant", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 1 })
		require.True(t, n.Add(&point{1, 1}))
		require.True(t, n.Add(&point{15, 3}))  // NE quadrant
		require.True(t, n.Add(&point{3, 15}))  // SW quadrant
		require.True(t, n.Add(&point{15, 15})) // SE quadrant
		assert.Equal(t, 4, n.Len())

		ne := n.Query(geo.MustRect(10, 0, 10, 10), nil)
		require.Len(t, ne, 1)
		assert.Equal(t, geo.Pt(15, 3), ne[0].Position())
	})

	t.Run("deep split on clustered points", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 1024, 1024), func(o *Options) { o.Capacity = 1 })
		for i := 0; i < 8; i++ {
			require.True(t, n.Add(&point{1 + float64(i)/100, 1 + float64(i)/100}))
		}
		assert.Equal(t, 8, n.Len())
		assert.Greater(t, len(n.AllBounds(nil)), 9)
	})
}

func TestNodeMinSize(t *testing.T) {
	t.Run("tiny boundary grows in place", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 0, 0), func(o *Options) { o.Capacity = 2 })
		for i := 0; i < 50; i++ {
			require.True(t, n.Add(&point{0, 0}))
		}
		assert.Equal(t, 50, n.Len())
		assert.Len(t, n.AllBounds(nil), 1)
	})

	t.Run("coincident points stop splitting at the floor", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 1, 1), func(o *Options) {
			o.Capacity = 1
			o.MinSize = 0.25
		})
		for i := 0; i < 20; i++ {
			require.True(t, n.Add(&point{0.1, 0.1}))
		}
		assert.Equal(t, 20, n.Len())
	})
}

func TestNodeRemove(t *testing.T) {
	t.Run("leaf removal preserves order", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		a, b, c := &point{1, 1}, &point{2, 2}, &point{3, 3}
		require.True(t, n.Add(a))
		require.True(t, n.Add(b))
		require.True(t, n.Add(c))

		require.True(t, n.Remove(b))
		got := n.Query(geo.MustRect(0, 0, 10, 10), nil)
		assert.Equal(t, []*point{a, c}, pts(got))
	})

	t.Run("identity not coordinates", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		a := &point{5, 5}
		b := &point{5, 5}
		require.True(t, n.Add(a))

		assert.False(t, n.Remove(b))
		assert.True(t, n.Remove(a))
		assert.Equal(t, 0, n.Len())
	})

	t.Run("absent item", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		assert.False(t, n.Remove(&point{5, 5}))
	})

	t.Run("position outside boundary", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 10, 10))
		p := &point{5, 5}
		require.True(t, n.Add(p))

		p.x = 50 // moved outside without relocation
		assert.False(t, n.Remove(p))
		assert.Equal(t, 1, n.Len())
	})

	t.Run("removal from child", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 1 })
		require.True(t, n.Add(&point{1, 1}))
		deep := &point{15, 15}
		require.True(t, n.Add(deep))

		require.True(t, n.Remove(deep))
		assert.Equal(t, 1, n.Len())
	})
}

func TestNodeRemoveAt(t *testing.T) {
	t.Run("stale position finds the item", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 1 })
		require.True(t, n.Add(&point{1, 1}))
		p := &point{15, 15}
		require.True(t, n.Add(p))

		// Item moved across quadrants; its live position no longer leads to it.
		p.x, p.y = 2, 2
		require.False(t, n.Remove(p))
		require.True(t, n.RemoveAt(p, geo.Pt(15, 15)))
		require.True(t, n.Add(p))

		got := n.Query(geo.MustRect(0, 0, 5, 5), nil)
		assert.Contains(t, pts(got), p)
	})

	t.Run("wrong position", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 1 })
		p := &point{15, 15}
		require.True(t, n.Add(&point{1, 1}))
		require.True(t, n.Add(p))

		assert.False(t, n.RemoveAt(p, geo.Pt(3, 3)))
		assert.Equal(t, 2, n.Len())
	})
}

func TestNodeClean(t *testing.T) {
	t.Run("drained children collapse", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 4 })
		local := make([]*point, 4)
		for i := range local {
			local[i] = &point{float64(i + 1), float64(i + 1)}
			require.True(t, n.Add(local[i]))
		}
		overflow := &point{15, 15}
		require.True(t, n.Add(overflow))
		require.Len(t, n.AllBounds(nil), 5)

		require.True(t, n.Remove(overflow))
		assert.Len(t, n.AllBounds(nil), 1)
		assert.Equal(t, 4, n.Len())
	})

	t.Run("no collapse while a child holds items", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 20, 20), func(o *Options) { o.Capacity = 1 })
		require.True(t, n.Add(&point{1, 1}))
		a, b := &point{15, 15}, &point{16, 2}
		require.True(t, n.Add(a))
		require.True(t, n.Add(b))

		require.True(t, n.Remove(a))
		assert.Len(t, n.AllBounds(nil), 5)
	})

	t.Run("cascading collapse", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 16, 16), func(o *Options) { o.Capacity = 1 })
		require.True(t, n.Add(&point{15, 15}))
		a, b := &point{1, 1}, &point{1.5, 1.5}
		require.True(t, n.Add(a))
		require.True(t, n.Add(b))
		require.Greater(t, len(n.AllBounds(nil)), 5)

		// Draining the nested NW subtree collapses it and then the root.
		require.True(t, n.Remove(a))
		require.True(t, n.Remove(b))
		assert.Equal(t, 1, n.Len())
		assert.Len(t, n.AllBounds(nil), 1)
	})
}

func TestNodeQuery(t *testing.T) {
	t.Run("region filter", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100))
		in := &point{10, 10}
		out := &point{90, 90}
		require.True(t, n.Add(in))
		require.True(t, n.Add(out))

		got := n.Query(geo.MustRect(0, 0, 50, 50), nil)
		assert.Equal(t, []*point{in}, pts(got))
	})

	t.Run("disjoint region", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100))
		require.True(t, n.Add(&point{10, 10}))

		got := n.Query(geo.MustRect(200, 200, 10, 10), nil)
		assert.Empty(t, got)
	})

	t.Run("region edge inclusive", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100))
		require.True(t, n.Add(&point{50, 50}))

		got := n.Query(geo.MustRect(0, 0, 50, 50), nil)
		assert.Len(t, got, 1)
	})

	t.Run("region overlapping boundary edge", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100))
		require.True(t, n.Add(&point{0, 50}))

		got := n.Query(geo.MustRect(-50, 0, 50, 100), nil)
		assert.Len(t, got, 1)
	})

	t.Run("spanning multiple quadrants", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100), func(o *Options) { o.Capacity = 1 })
		positions := []geo.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 10, Y: 90}, {X: 90, Y: 90}}
		for _, p := range positions {
			require.True(t, n.Add(&point{p.X, p.Y}))
		}

		got := n.Query(geo.MustRect(0, 0, 100, 100), nil)
		assert.Len(t, got, 4)
	})

	t.Run("appends to dst", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 100, 100))
		require.True(t, n.Add(&point{10, 10}))

		sentinel := &point{-1, -1}
		got := n.Query(geo.MustRect(0, 0, 100, 100), []Item{sentinel})
		require.Len(t, got, 2)
		assert.Same(t, sentinel, got[0].(*point))
	})

	t.Run("deterministic order", func(t *testing.T) {
		build := func() *Node {
			n := New(geo.MustRect(0, 0, 100, 100), func(o *Options) { o.Capacity = 2 })
			for i := 0; i < 20; i++ {
				require.True(t, n.Add(&point{float64(i*5 + 1), float64((i * 13) % 97)}))
			}
			return n
		}

		fingerprint := func(n *Node) []string {
			var out []string
			for _, it := range n.Query(geo.MustRect(0, 0, 100, 100), nil) {
				out = append(out, fmt.Sprintf("%v", it.Position()))
			}
			return out
		}

		assert.Equal(t, fingerprint(build()), fingerprint(build()))
	})
}

func TestNodeOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 1, 1))
		assert.Equal(t, DefaultCapacity, n.Capacity())
		assert.Equal(t, DefaultMinSize, n.MinSize())
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		n := New(geo.MustRect(0, 0, 1, 1), func(o *Options) {
			o.Capacity = -3
			o.MinSize = -1
		})
		assert.Equal(t, DefaultCapacity, n.Capacity())
		assert.Equal(t, DefaultMinSize, n.MinSize())
	})
}
