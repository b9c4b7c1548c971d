// Package snapshot serializes an index to a compact binary format and
// restores it, with optional compression and CRC32 integrity checking.
//
// A snapshot captures the index configuration (boundary, node capacity,
// minimum node size) and every tracked item with its tags. Items are
// application types, so callers supply an ItemCodec that can marshal and
// unmarshal them; JSONCodec covers the common case of a JSON-serializable
// pointer type:
//
//	codec := snapshot.NewJSONCodec[Vehicle]()
//
//	var buf bytes.Buffer
//	if err := snapshot.Write(ctx, &buf, idx, codec); err != nil { ... }
//
//	restored, err := snapshot.Read(ctx, &buf, codec)
//
// Manager layers versioned snapshots and a LATEST pointer on top of a
// blobstore.Store, so the same code persists to local disk, S3 or MinIO.
package snapshot
