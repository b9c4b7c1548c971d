package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator(t *testing.T) {
	t.Run("sequential", func(t *testing.T) {
		a := New()
		assert.Equal(t, uint32(0), a.Alloc())
		assert.Equal(t, uint32(1), a.Alloc())
		assert.Equal(t, uint32(2), a.Alloc())
		assert.Equal(t, 3, a.Live())
	})

	t.Run("reuse after release", func(t *testing.T) {
		a := New()
		a.Alloc()
		id := a.Alloc()
		a.Alloc()

		a.Release(id)
		assert.Equal(t, 2, a.Live())
		assert.Equal(t, id, a.Alloc())
		assert.Equal(t, 3, a.Live())
	})

	t.Run("free list before extending", func(t *testing.T) {
		a := New()
		for i := 0; i < 5; i++ {
			a.Alloc()
		}
		a.Release(1)
		a.Release(3)

		first := a.Alloc()
		second := a.Alloc()
		assert.ElementsMatch(t, []uint32{1, 3}, []uint32{first, second})
		assert.Equal(t, uint32(5), a.Alloc(), "free list drained, range extends")
	})

	t.Run("reset", func(t *testing.T) {
		a := New()
		a.Alloc()
		a.Alloc()
		a.Release(0)

		a.Reset()
		assert.Equal(t, 0, a.Live())
		assert.Equal(t, uint32(0), a.Alloc())
	})
}
