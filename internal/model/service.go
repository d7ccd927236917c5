package model

const ProjectServiceTableName = "project_services"

// ProjectService 版本内的一个容器服务
type ProjectService struct {
	BaseModel
	ProjectVersionID int64      `gorm:"not null;uniqueIndex:uk_version_service,priority:1" json:"project_version_id"`
	Name             string     `gorm:"size:100;not null;uniqueIndex:uk_version_service,priority:2" json:"name"`
	Image            string     `gorm:"size:500;not null" json:"image"`
	ImageUsername    string     `gorm:"size:200" json:"image_username"`
	ImagePassword    string     `gorm:"size:500" json:"-"`
	CPUCores         float64    `gorm:"not null" json:"cpu_cores"`
	MemoryBytes      int64      `gorm:"not null" json:"memory_bytes"`
	EnvironmentVars  EnvVarList `gorm:"type:json;column:environment_variables" json:"environment_variables"`
	Secrets          StringList `gorm:"type:json" json:"secrets"`
	Ports            IntList    `gorm:"type:json" json:"ports"`
	PredeployCommand *string    `gorm:"type:text" json:"predeploy_command"`
	IngressPort      *int       `json:"ingress_port"`
	PVCName          *string    `gorm:"size:100" json:"pvc_name"`
	PVCSizeBytes     *int64     `json:"pvc_size_bytes"`
	PVCMountPath     *string    `gorm:"size:500" json:"pvc_mount_path"`
}

func (ProjectService) TableName() string {
	return ProjectServiceTableName
}

// GetID 实现 comparison.Named
func (s ProjectService) GetID() int64 { return s.ID }

// GetName 实现 comparison.Named
func (s ProjectService) GetName() string { return s.Name }
