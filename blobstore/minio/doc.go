// Package minio provides a blobstore.Store implementation for MinIO and
// other S3-compatible object stores.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	store := miniostore.NewStore(client, "quadgo", "indexes/")
//
// Unlike the s3 package, this one takes a pre-built client and never touches
// the AWS config chain, which makes it the natural fit for self-hosted
// deployments and integration tests against a local MinIO container.
package minio
