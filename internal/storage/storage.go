package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket      string
	KeyPrefix   string
	ContentType string
}

// Service stores record exports in remote object storage.
type Service interface {
	Upload(ctx context.Context, name string, body io.Reader, opts UploadOptions) (key string, location string, err error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// ObjectKey joins a prefix and an object name with a single slash.
func ObjectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.Trim(name, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
