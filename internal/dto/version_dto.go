package dto

import "onprem-cd/internal/core/comparison"

// CreateVersionRequest 创建版本, CloneFromID 不为空时复制该版本的服务和依赖
type CreateVersionRequest struct {
	ProjectID   int64   `json:"project_id" binding:"required,min=1"`
	Version     string  `json:"version" binding:"required,max=50"`
	Description *string `json:"description"`
	CloneFromID *int64  `json:"clone_from_id" binding:"omitempty,min=1"`
}

// UpdateVersionRequest 更新版本描述
type UpdateVersionRequest struct {
	ID          int64   `json:"id" binding:"required,min=1"`
	Description *string `json:"description"`
}

// VersionListQuery 版本列表
type VersionListQuery struct {
	ProjectID int64 `form:"project_id" binding:"required,min=1"`
}

// GetVersionRequest 版本详情
type GetVersionRequest struct {
	ID int64 `form:"id" binding:"required,min=1"`
}

// CompareVersionQuery 版本对比
type CompareVersionQuery struct {
	BaseID     int64 `form:"base_id" binding:"required,min=1"`
	IncomingID int64 `form:"incoming_id" binding:"required,min=1"`
}

// PreviewVersionQuery chart 预览, SubscriberID 为空时不包含 agent 服务
type PreviewVersionQuery struct {
	ID           int64  `form:"id" binding:"required,min=1"`
	SubscriberID *int64 `form:"subscriber_id" binding:"omitempty,min=1"`
}

// VersionResponse 版本响应
type VersionResponse struct {
	ID                int64                 `json:"id"`
	ProjectID         int64                 `json:"project_id"`
	ProjectName       string                `json:"project_name,omitempty"`
	Version           string                `json:"version"`
	State             string                `json:"state"`
	Description       *string               `json:"description"`
	PreviousVersionID *int64                `json:"previous_version_id"`
	PublishedAt       *string               `json:"published_at"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	Services          []*ServiceResponse    `json:"services,omitempty"`
	Dependencies      []*DependencyResponse `json:"dependencies,omitempty"`
}

// PublishVersionResponse 发布结果
type PublishVersionResponse struct {
	Version     *VersionResponse `json:"version"`
	Directories []string         `json:"directories"`
}

// ComparisonResponse 版本对比结果
type ComparisonResponse = comparison.VersionComparison

// ValuesPreviewResponse values 预览
type ValuesPreviewResponse struct {
	Values string `json:"values"`
}
