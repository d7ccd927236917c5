package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	IndexFileName = "index.yaml"

	contentTypeYAML    = "application/x-yaml"
	contentTypeArchive = "application/gzip"
)

// ErrInvalidFileName 仓库内不允许的文件名
var ErrInvalidFileName = errors.New("invalid helm repository file name")

// Directory 订阅方 helm 用户对应的仓库目录 {repo}-{user}
func Directory(repoName, userName string) string {
	return repoName + "-" + userName
}

// ChartFileName chart 归档文件名
func ChartFileName(project, version string) string {
	return fmt.Sprintf("%s-%s.tgz", project, version)
}

// ValuesFileName 客户端 values 文件名
func ValuesFileName(project, version string) string {
	return fmt.Sprintf("%s-%s-values.yaml", project, version)
}

// RepoClient 按目录读写 helm 仓库文件
type RepoClient struct {
	store Store
}

// NewRepoClient 创建仓库客户端
func NewRepoClient(store Store) *RepoClient {
	return &RepoClient{store: store}
}

// Fetch 读取目录下的文件, 仅允许 index.yaml / *.tgz / *.yaml
func (c *RepoClient) Fetch(ctx context.Context, directory, filename string) ([]byte, string, error) {
	contentType, err := contentTypeOf(filename)
	if err != nil {
		return nil, "", err
	}
	data, err := c.store.Get(ctx, path.Join(directory, filename))
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// PutValues 写入客户端 values 文件
func (c *RepoClient) PutValues(ctx context.Context, directory, project, version string, data []byte) error {
	return c.store.Put(ctx, path.Join(directory, ValuesFileName(project, version)), data, contentTypeYAML)
}

func contentTypeOf(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, filename)
	}
	switch {
	case strings.HasSuffix(filename, ".tgz"):
		return contentTypeArchive, nil
	case strings.HasSuffix(filename, ".yaml"):
		return contentTypeYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, filename)
	}
}
