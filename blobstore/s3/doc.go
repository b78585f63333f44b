// Package s3 provides an Amazon S3 implementation of the blobstore.Store
// interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("snapshots/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	info, err := index.Snapshot(ctx, store, "products.snap")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large snapshots
//   - CRC32C integrity checks on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
