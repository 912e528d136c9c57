// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "models/")
//	if err != nil {
//	    return err
//	}
//
//	if err := model.SaveTo(ctx, store, "cohort-2026.bayes"); err != nil {
//	    return err
//	}
//
// # Features
//
//   - Multipart uploads with CRC32C integrity validation
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
