package model

const ProjectTableName = "projects"

// Project 项目, 名称同时作为 chart 名与订阅方 helm 仓库名
type Project struct {
	BaseModelWithSoftDelete
	Name        string  `gorm:"size:53;not null;uniqueIndex" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	OwnerName   *string `gorm:"size:100" json:"owner_name"`

	Versions    []ProjectVersion `gorm:"foreignKey:ProjectID" json:"versions,omitempty"`
	Subscribers []Subscriber     `gorm:"foreignKey:ProjectID" json:"subscribers,omitempty"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// ProjectUsage 项目下的版本与订阅方统计
type ProjectUsage struct {
	VersionCount    int64
	SubscriberCount int64
	// LatestPublished 最近发布的版本号, 未发布过时为空
	LatestPublished string
}
