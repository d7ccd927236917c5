package dto

// CreateDependencyRequest 添加依赖, Name 为 values 别名, ChartName 为目录中的依赖类型
type CreateDependencyRequest struct {
	ProjectVersionID int64                  `json:"project_version_id" binding:"required,min=1"`
	Name             string                 `json:"name" binding:"required,max=63"`
	ChartName        string                 `json:"chart_name" binding:"required"`
	Version          string                 `json:"version" binding:"required"`
	Configs          map[string]interface{} `json:"configs" binding:"required"`
}

// UpdateDependencyRequest 更新依赖版本和配置
type UpdateDependencyRequest struct {
	ID      int64                  `json:"id" binding:"required,min=1"`
	Version string                 `json:"version" binding:"required"`
	Configs map[string]interface{} `json:"configs" binding:"required"`
}

// DependencyResponse 依赖响应
type DependencyResponse struct {
	ID               int64                  `json:"id"`
	ProjectVersionID int64                  `json:"project_version_id"`
	Name             string                 `json:"name"`
	ChartName        string                 `json:"chart_name"`
	Version          string                 `json:"version"`
	RepoURL          string                 `json:"repo_url"`
	Configs          map[string]interface{} `json:"configs"`
}
