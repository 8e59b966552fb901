// Package s3 stores page blobs in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("pagelog/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	topic, err := pagelog.Open(ctx, "orders", pagelog.WithBlobStore(store))
//
// # Features
//
//   - Range reads through GetObject
//   - Single PutObject with CRC32C for small blobs, multipart upload above PartSize
//   - Automatic pagination for listing
//   - Key prefix for sharing a bucket between deployments
package s3
