// Package blobstore abstracts the storage backends snapshots are written to.
//
// A Store holds named immutable blobs. Implementations exist for the local
// file system (LocalStore), plain memory (MemoryStore, for tests), Amazon S3
// (the s3 subpackage, optionally with a DynamoDB-backed pointer commit) and
// MinIO / S3-compatible object storage (the minio subpackage).
package blobstore
