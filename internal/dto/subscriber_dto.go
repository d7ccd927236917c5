package dto

// CreateSubscriberRequest 创建订阅方
type CreateSubscriberRequest struct {
	ProjectID int64  `json:"project_id" binding:"required,min=1"`
	Name      string `json:"name" binding:"required,max=100"`
	FullAgent bool   `json:"full_agent"`
}

// UpdateSubscriberRequest 更新订阅方
type UpdateSubscriberRequest struct {
	ID        int64   `json:"id" binding:"required,min=1"`
	Name      *string `json:"name" binding:"omitempty,max=100"`
	FullAgent *bool   `json:"full_agent"`
}

// SubscriberListQuery 订阅方列表
type SubscriberListQuery struct {
	ProjectID int64 `form:"project_id" binding:"required,min=1"`
}

// GetSubscriberRequest 订阅方详情
type GetSubscriberRequest struct {
	ID int64 `form:"id" binding:"required,min=1"`
}

// DeploySubscriberRequest 将已发布版本推送给订阅方并下发 apply 动作
type DeploySubscriberRequest struct {
	ID               int64 `json:"id" binding:"required,min=1"`
	ProjectVersionID int64 `json:"project_version_id" binding:"required,min=1"`
}

// CreateHelmUserRequest 创建 helm 仓库用户
type CreateHelmUserRequest struct {
	SubscriberID int64  `json:"subscriber_id" binding:"required,min=1"`
	Name         string `json:"name" binding:"required,max=50,alphanum"`
}

// DeleteHelmUserRequest 删除 helm 仓库用户
type DeleteHelmUserRequest struct {
	SubscriberID int64  `json:"subscriber_id" binding:"required,min=1"`
	Name         string `json:"name" binding:"required"`
}

// SubscriberResponse 订阅方响应
type SubscriberResponse struct {
	ID               int64             `json:"id"`
	UUID             string            `json:"uuid"`
	ProjectID        int64             `json:"project_id"`
	ProjectName      string            `json:"project_name,omitempty"`
	Name             string            `json:"name"`
	FullAgent        bool              `json:"full_agent"`
	ProjectVersionID *int64            `json:"project_version_id"`
	HelmRepo         *HelmRepoResponse `json:"helm_repo,omitempty"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

// HelmRepoResponse helm 仓库
type HelmRepoResponse struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// HelmUserResponse 新建的 helm 用户, 密码只返回一次
type HelmUserResponse struct {
	Name           string `json:"name"`
	Password       string `json:"password"`
	Directory      string `json:"directory"`
	AddRepoCommand string `json:"add_repo_command"`
}

// AgentTokenResponse agent 令牌
type AgentTokenResponse struct {
	Token string `json:"token"`
}
