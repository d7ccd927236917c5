package dto

// EnvironmentVariable 环境变量
type EnvironmentVariable struct {
	Name  string `json:"name" binding:"required,max=255"`
	Value string `json:"value"`
}

// ServiceFields 服务可编辑字段
type ServiceFields struct {
	Name                 string                `json:"name" binding:"required,max=63"`
	Image                string                `json:"image" binding:"required,max=500"`
	ImageUsername        string                `json:"image_username" binding:"omitempty,max=200"`
	ImagePassword        *string               `json:"image_password" binding:"omitempty,max=500"` // 为空时保留原密码
	CPUCores             float64               `json:"cpu_cores" binding:"required,gt=0"`
	MemoryBytes          int64                 `json:"memory_bytes" binding:"required,gt=0"`
	EnvironmentVariables []EnvironmentVariable `json:"environment_variables" binding:"omitempty,dive"`
	Secrets              []string              `json:"secrets" binding:"omitempty,dive,required,max=253"`
	Ports                []int                 `json:"ports" binding:"omitempty,dive,min=1,max=65535"`
	PredeployCommand     *string               `json:"predeploy_command"`
	IngressPort          *int                  `json:"ingress_port" binding:"omitempty,min=1,max=65535"`
	PVCSizeBytes         *int64                `json:"pvc_size_bytes" binding:"omitempty,gt=0"`
	PVCMountPath         *string               `json:"pvc_mount_path" binding:"omitempty,max=500"`
}

// CreateServiceRequest 创建服务
type CreateServiceRequest struct {
	ProjectVersionID int64 `json:"project_version_id" binding:"required,min=1"`
	ServiceFields
}

// UpdateServiceRequest 更新服务
type UpdateServiceRequest struct {
	ID int64 `json:"id" binding:"required,min=1"`
	ServiceFields
}

// ServiceResponse 服务响应, 不返回镜像密码
type ServiceResponse struct {
	ID                   int64                 `json:"id"`
	ProjectVersionID     int64                 `json:"project_version_id"`
	Name                 string                `json:"name"`
	Image                string                `json:"image"`
	ImageUsername        string                `json:"image_username"`
	HasImagePassword     bool                  `json:"has_image_password"`
	CPUCores             float64               `json:"cpu_cores"`
	MemoryBytes          int64                 `json:"memory_bytes"`
	EnvironmentVariables []EnvironmentVariable `json:"environment_variables"`
	Secrets              []string              `json:"secrets"`
	Ports                []int                 `json:"ports"`
	PredeployCommand     *string               `json:"predeploy_command"`
	IngressPort          *int                  `json:"ingress_port"`
	PVCName              *string               `json:"pvc_name"`
	PVCSizeBytes         *int64                `json:"pvc_size_bytes"`
	PVCMountPath         *string               `json:"pvc_mount_path"`
}
