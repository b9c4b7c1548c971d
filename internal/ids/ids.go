// Package ids provides a small uint32 handle allocator with ID reuse.
package ids

// Allocator hands out dense uint32 handles, reusing released IDs from a free
// list before extending the range. Not safe for concurrent use.
type Allocator struct {
	next uint32
	free []uint32
}

// New creates a new allocator starting at zero.
func New() *Allocator {
	return &Allocator{}
}

// Alloc reserves a handle, preferring IDs from the free list.
func (a *Allocator) Alloc() uint32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Release returns a handle to the free list for reuse.
// Releasing the same handle twice corrupts the allocator; callers must not.
func (a *Allocator) Release(id uint32) {
	a.free = append(a.free, id)
}

// Reset discards all state, invalidating every outstanding handle.
func (a *Allocator) Reset() {
	a.next = 0
	a.free = a.free[:0]
}

// Live returns the number of handles currently allocated.
func (a *Allocator) Live() int {
	return int(a.next) - len(a.free)
}
