// Package tagindex provides an inverted index from string tags to item
// handles, backed by Roaring Bitmaps.
//
// The spatial index assigns each tracked item a uint32 handle; tagging an
// item records its handle in one posting bitmap per tag. Range queries can
// then be filtered by tag with an O(1) bitmap membership test per candidate.
package tagindex

import (
	"iter"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index is a tag -> handle inverted index. Not safe for concurrent use.
type Index struct {
	postings map[string]*roaring.Bitmap
	byID     map[uint32][]string
}

// New creates a new empty tag index.
func New() *Index {
	return &Index{
		postings: make(map[string]*roaring.Bitmap),
		byID:     make(map[uint32][]string),
	}
}

// Add records the handle under each of the given tags.
// Duplicate tags are recorded once.
func (ix *Index) Add(id uint32, tags ...string) {
	if len(tags) == 0 {
		return
	}
	for _, tag := range tags {
		rb, ok := ix.postings[tag]
		if !ok {
			rb = roaring.New()
			ix.postings[tag] = rb
		}
		if rb.CheckedAdd(id) {
			ix.byID[id] = append(ix.byID[id], tag)
		}
	}
}

// Remove drops the handle from every tag it was recorded under.
func (ix *Index) Remove(id uint32) {
	tags, ok := ix.byID[id]
	if !ok {
		return
	}
	for _, tag := range tags {
		rb := ix.postings[tag]
		rb.Remove(id)
		if rb.IsEmpty() {
			delete(ix.postings, tag)
		}
	}
	delete(ix.byID, id)
}

// Matches reports whether the handle is recorded under the tag. O(1).
func (ix *Index) Matches(tag string, id uint32) bool {
	rb, ok := ix.postings[tag]
	return ok && rb.Contains(id)
}

// TagsOf returns the tags recorded for the handle, sorted.
// The returned slice is a copy.
func (ix *Index) TagsOf(id uint32) []string {
	tags := ix.byID[id]
	if len(tags) == 0 {
		return nil
	}
	out := slices.Clone(tags)
	sort.Strings(out)
	return out
}

// Cardinality returns the number of handles recorded under the tag.
func (ix *Index) Cardinality(tag string) uint64 {
	rb, ok := ix.postings[tag]
	if !ok {
		return 0
	}
	return rb.GetCardinality()
}

// Tags returns an iterator over all tags with at least one handle.
func (ix *Index) Tags() iter.Seq[string] {
	return func(yield func(string) bool) {
		for tag := range ix.postings {
			if !yield(tag) {
				return
			}
		}
	}
}

// Clear drops all postings.
func (ix *Index) Clear() {
	ix.postings = make(map[string]*roaring.Bitmap)
	ix.byID = make(map[uint32][]string)
}
