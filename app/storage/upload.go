package storage

import (
	"context"
	"fmt"
	"mime/multipart"
)

// SaveUpload stores an uploaded file under prefix and returns its key.
func SaveUpload(ctx context.Context, store Store, prefix string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	key := UploadKey(prefix, fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentType(key)
	}
	return store.Put(ctx, key, src, fh.Size, contentType)
}
