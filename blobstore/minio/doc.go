// Package minio stores page blobs in MinIO or another S3-compatible service
// through the MinIO client.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "pagelog", "prod/")
//	if err := store.EnsureBucket(ctx, ""); err != nil {
//	    log.Fatal(err)
//	}
//	topic, err := pagelog.Open(ctx, "orders", pagelog.WithBlobStore(store))
//
// Works with Ceph, Garage and SeaweedFS as well and has no AWS SDK dependency.
package minio
