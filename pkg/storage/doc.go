// Package storage keeps uploaded files such as product photos.
//
// Two backends implement Storage: Local writes below a directory served as
// static files, S3 writes to an S3 compatible bucket through aws-sdk-go-v2.
// Open picks one from configuration. Keys are generated as
// "{prefix}/{uuid}{ext}" with the extension derived from the sniffed content
// type, never from the client supplied file name.
//
//	info, err := store.Put(ctx, file, size, storage.WithPrefix("products"))
//	url, err := store.URL(ctx, info.Key)
//
// DetectReader and IsImageType back the image validation rule.
package storage
