// Package quadgo provides an embeddable, mutable spatial index over 2D
// points for Go.
//
// Quadgo stores arbitrary items that expose a position and answers "which
// stored items fall inside this rectangle" by recursively partitioning space
// with a fixed 4-way quadrant split (a point quadtree with configurable leaf
// capacity).
//
// # Quick Start
//
//	bounds := geo.MustRect(0, 0, 1000, 1000)
//	idx := quadgo.New(bounds)
//
//	idx.Add(vehicle)                          // index at the item's position
//	hits := idx.QueryXY(100, 100, 50, 50)     // items inside the rectangle
//
// # Moving Items
//
// Items stay owned by the caller and may move between operations. The index
// tracks the position each item was last indexed at; after mutating an item's
// coordinates, tell the index before the next query:
//
//	vehicle.X, vehicle.Y = 420, 17
//	idx.Moved(vehicle)
//
// Moved removes the item from its last-known slot and re-inserts it at its
// current position. UpdateAll is the O(n) fallback sweep for callers that do
// not track per-item movement; prefer explicit Moved calls.
//
// # Identity
//
// Items are tracked by identity (Go interface equality), not by coordinate
// equality. Use pointer types: two distinct items at the same position are
// tracked separately, and the item type must be comparable.
//
// # Tag Filtering
//
// Items can be indexed under string tags and range queries filtered by tag
// with a Roaring Bitmap inverted index:
//
//	idx.AddTagged(vehicle, "taxi")
//	taxis := idx.QueryTagged(region, "taxi")
//
// # Snapshots
//
// The snapshot package serializes an index to a compressed, checksummed
// binary format and manages versioned snapshots in local, in-memory, S3 or
// MinIO blob stores.
//
// # Concurrency
//
// An Index is not safe for concurrent use. Every operation runs to
// completion synchronously; callers that share an index across goroutines
// must serialize access (for example with a single mutex around every public
// operation).
package quadgo
