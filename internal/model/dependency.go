package model

import "gorm.io/datatypes"

const DependencyTableName = "dependencies"

// Dependency 版本依赖的 helm chart, Name 同时作为 values 别名
type Dependency struct {
	BaseModel
	ProjectVersionID int64             `gorm:"not null;uniqueIndex:uk_version_dependency,priority:1" json:"project_version_id"`
	Name             string            `gorm:"size:100;not null;uniqueIndex:uk_version_dependency,priority:2" json:"name"`
	ChartName        string            `gorm:"size:100;not null" json:"chart_name"` // 目录中的依赖类型, 如 postgresql
	Version          string            `gorm:"size:50;not null" json:"version"`
	RepoURL          string            `gorm:"size:500;not null" json:"repo_url"`
	Configs          datatypes.JSONMap `json:"configs"`
}

func (Dependency) TableName() string {
	return DependencyTableName
}

// GetID 实现 comparison.Named
func (d Dependency) GetID() int64 { return d.ID }

// GetName 实现 comparison.Named
func (d Dependency) GetName() string { return d.Name }
