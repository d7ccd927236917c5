// Package sidecar chart 构建 sidecar 的 gRPC 客户端
package sidecar

import (
	"context"

	"onprem-cd/internal/core/chart"
)

const (
	serviceName = "Sidecar"

	MethodValidateChart = "/" + serviceName + "/ValidateChart"
	MethodPublishChart  = "/" + serviceName + "/PublishChart"
	MethodGenerateChart = "/" + serviceName + "/GenerateChart"
)

// ValidateChartRequest 校验请求
type ValidateChartRequest struct {
	Chart *chart.ChartParams `json:"chart"`
}

// ValidateChartResponse 校验结果, Valid 为 false 时 Errors 为 sidecar 给出的全部错误
type ValidateChartResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// PublishChartRequest 发布到指定仓库目录
type PublishChartRequest struct {
	Chart               *chart.ChartParams `json:"chart"`
	RepositoryDirectory string             `json:"repository_directory"`
}

// PublishChartResponse 发布结果
type PublishChartResponse struct{}

// GenerateChartRequest 生成 chart 归档, 用于预览
type GenerateChartRequest struct {
	Chart *chart.ChartParams `json:"chart"`
}

// GenerateChartResponse chart 归档 (tgz)
type GenerateChartResponse struct {
	Chart []byte `json:"chart"`
}

// Client sidecar 调用, 不做重试
type Client interface {
	ValidateChart(ctx context.Context, req *ValidateChartRequest) (*ValidateChartResponse, error)
	PublishChart(ctx context.Context, req *PublishChartRequest) (*PublishChartResponse, error)
	GenerateChart(ctx context.Context, req *GenerateChartRequest) (*GenerateChartResponse, error)
	Close() error
}
