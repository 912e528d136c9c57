// Package minio provides a MinIO implementation of the blobstore.Store
// interface for S3-compatible object storage.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//
//	store := miniostore.NewStore(client, "bayes-models", "prod/")
package minio
