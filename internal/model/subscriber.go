package model

const (
	SubscriberTableName = "subscribers"
	HelmRepoTableName   = "helm_repos"
	HelmUserTableName   = "helm_users"
)

// Subscriber 订阅方, 即部署了项目 chart 的一个客户环境
type Subscriber struct {
	BaseModel
	UUID             string  `gorm:"size:36;not null;uniqueIndex" json:"uuid"`
	ProjectID        int64   `gorm:"not null;index" json:"project_id"`
	Name             string  `gorm:"size:100;not null" json:"name"`
	FullAgent        bool    `gorm:"not null;default:false" json:"full_agent"`
	ProjectVersionID *int64  `gorm:"index" json:"project_version_id"`
	TokenID          *string `gorm:"size:36" json:"-"` // 当前有效的 agent token, 重新签发即吊销旧 token

	Project  *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	HelmRepo *HelmRepo `gorm:"foreignKey:SubscriberID" json:"helm_repo,omitempty"`
}

func (Subscriber) TableName() string {
	return SubscriberTableName
}

// HelmRepo 订阅方专属 helm 仓库
type HelmRepo struct {
	BaseModel
	SubscriberID int64      `gorm:"not null;uniqueIndex" json:"subscriber_id"`
	Name         string     `gorm:"size:100;not null;index" json:"name"`
	HelmUsers    []HelmUser `gorm:"foreignKey:HelmRepoID" json:"helm_users,omitempty"`
}

func (HelmRepo) TableName() string {
	return HelmRepoTableName
}

// HelmUser helm 仓库的 basic auth 用户
type HelmUser struct {
	BaseModel
	HelmRepoID   int64  `gorm:"not null;uniqueIndex:uk_repo_user,priority:1" json:"helm_repo_id"`
	Name         string `gorm:"size:100;not null;uniqueIndex:uk_repo_user,priority:2" json:"name"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
}

func (HelmUser) TableName() string {
	return HelmUserTableName
}
