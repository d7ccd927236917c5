package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 公共字段, 时间统一存 UTC
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// BaseModelWithSoftDelete 软删除, 目前只用于项目
type BaseModelWithSoftDelete struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// AllModels 需要自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Project{},
		&ProjectVersion{},
		&ProjectService{},
		&Dependency{},
		&Subscriber{},
		&HelmRepo{},
		&HelmUser{},
		&AgentInstance{},
		&AgentEventLog{},
		&AgentAction{},
	}
}
