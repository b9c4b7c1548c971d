// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/fleet/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	mgr := snapshot.NewManager(store, itemCodec)
//
// # Features
//
//   - Streaming multipart uploads for large snapshots
//   - Range reads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - Optional DynamoDB-backed pointer commits for concurrent writers
//     (see DDBPointerStore)
package s3
