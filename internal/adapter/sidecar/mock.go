package sidecar

import (
	"context"
	"sync"
)

// MockClient 本地开发与测试使用, 记录收到的请求
type MockClient struct {
	mu sync.Mutex

	// ValidationErrors 非空时校验不通过
	ValidationErrors []string
	// Err 非空时所有调用返回该错误
	Err error
	// Archive GenerateChart 返回的内容
	Archive []byte

	Validated []*ValidateChartRequest
	Published []*PublishChartRequest
}

// NewMockClient 创建始终成功的 mock
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ValidateChart(_ context.Context, req *ValidateChartRequest) (*ValidateChartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Validated = append(m.Validated, req)
	return &ValidateChartResponse{Valid: len(m.ValidationErrors) == 0, Errors: m.ValidationErrors}, nil
}

func (m *MockClient) PublishChart(_ context.Context, req *PublishChartRequest) (*PublishChartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Published = append(m.Published, req)
	return &PublishChartResponse{}, nil
}

func (m *MockClient) GenerateChart(_ context.Context, _ *GenerateChartRequest) (*GenerateChartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &GenerateChartResponse{Chart: m.Archive}, nil
}

func (m *MockClient) Close() error {
	return nil
}

// PublishedDirectories 已发布的仓库目录
func (m *MockClient) PublishedDirectories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirs := make([]string, 0, len(m.Published))
	for _, req := range m.Published {
		dirs = append(dirs, req.RepositoryDirectory)
	}
	return dirs
}
