// Package blobstore helm 仓库文件所在的对象存储
package blobstore

import (
	"context"
	"errors"
	"fmt"

	"onprem-cd/internal/pkg/config"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// Store 对象存储读写
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Close() error
}

// New 按配置创建存储
func New(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Driver)
	}
}
