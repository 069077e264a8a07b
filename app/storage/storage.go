package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/marketplace/catalog/app/config"
)

var ErrInvalidKey = errors.New("invalid object key")

// Store keeps uploaded and generated images. Keys are slash separated
// paths such as "products/ab12cd34.png".
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New returns the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageLocal:
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case config.StorageMinio:
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	return nil, fmt.Errorf("storage: unsupported driver %q", cfg.StorageDriver)
}

// UploadKey builds a collision free key for a user upload under prefix,
// keeping a readable slug of the original file name.
func UploadKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "image"
	}
	return path.Join(prefix, fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext))
}

// ContentType guesses the MIME type of an image from its extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
