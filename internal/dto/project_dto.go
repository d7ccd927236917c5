package dto

// CreateProjectRequest 创建项目请求, name 即 chart 名
type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=53" example:"acme"`
	Description *string `json:"description"`
	OwnerName   *string `json:"owner_name" binding:"omitempty,max=100"`
}

// UpdateProjectRequest 项目名创建后不可修改
type UpdateProjectRequest struct {
	ID          int64   `json:"id" binding:"required,min=1"`
	Description *string `json:"description"`
	OwnerName   *string `json:"owner_name" binding:"omitempty,max=100"`
}

type ProjectResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	OwnerName   *string `json:"owner_name"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	*ProjectUsage // 仅详情接口返回
}

// ProjectUsage 项目下的版本与订阅方统计
type ProjectUsage struct {
	VersionCount    int64  `json:"version_count"`
	SubscriberCount int64  `json:"subscriber_count"`
	LatestPublished string `json:"latest_published,omitempty"`
}

// ProjectListQuery 项目列表查询参数
type ProjectListQuery struct {
	PageQuery
}

// ProjectSimpleResponse 下拉选择用
type ProjectSimpleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
