package model

import "time"

const ProjectVersionTableName = "project_versions"

// ProjectVersion 项目版本, 版本号在项目内唯一
type ProjectVersion struct {
	BaseModel
	ProjectID         int64      `gorm:"not null;uniqueIndex:uk_project_version,priority:1" json:"project_id"`
	Version           string     `gorm:"size:50;not null;uniqueIndex:uk_project_version,priority:2" json:"version"`
	State             string     `gorm:"size:20;not null;default:draft;index" json:"state"`
	Description       *string    `gorm:"type:text" json:"description"`
	PreviousVersionID *int64     `gorm:"index" json:"previous_version_id"`
	PublishedAt       *time.Time `json:"published_at"`

	Project      *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Services     []ProjectService `gorm:"foreignKey:ProjectVersionID" json:"services,omitempty"`
	Dependencies []Dependency     `gorm:"foreignKey:ProjectVersionID" json:"dependencies,omitempty"`
}

func (ProjectVersion) TableName() string {
	return ProjectVersionTableName
}

// ProjectName 版本所属项目名, 未预加载项目时为空
func (v *ProjectVersion) ProjectName() string {
	if v.Project == nil {
		return ""
	}
	return v.Project.Name
}
