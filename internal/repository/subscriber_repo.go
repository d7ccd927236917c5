package repository

import (
	"errors"

	"gorm.io/gorm"

	"onprem-cd/internal/model"
	pkgErrors "onprem-cd/pkg/responses"
)

type SubscriberRepository interface {
	// Create 同时创建订阅方的 helm 仓库
	Create(subscriber *model.Subscriber, repoName string) error
	FindByID(id int64) (*model.Subscriber, error)
	FindByUUID(uuid string) (*model.Subscriber, error)
	ListByProject(projectID int64) ([]*model.Subscriber, error)
	ListByVersion(versionID int64) ([]*model.Subscriber, error)
	Update(subscriber *model.Subscriber) error
	UpdateToken(id int64, tokenID string) error
	SetVersion(id int64, versionID int64) error
	Delete(id int64) error

	CreateHelmUser(user *model.HelmUser) error
	DeleteHelmUser(repoID int64, name string) error
	FindHelmUser(repoName, userName string) (*model.HelmUser, error)
}

type subscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

func (r *subscriberRepository) Create(subscriber *model.Subscriber, repoName string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "HelmRepo").Create(subscriber).Error; err != nil {
			return err
		}
		repo := &model.HelmRepo{SubscriberID: subscriber.ID, Name: repoName}
		if err := tx.Omit("HelmUsers").Create(repo).Error; err != nil {
			return err
		}
		subscriber.HelmRepo = repo
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建订阅方失败", err)
	}
	return nil
}

func (r *subscriberRepository) preloaded() *gorm.DB {
	return r.db.Preload("Project").Preload("HelmRepo").Preload("HelmRepo.HelmUsers", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	})
}

func (r *subscriberRepository) FindByID(id int64) (*model.Subscriber, error) {
	var subscriber model.Subscriber
	if err := r.preloaded().First(&subscriber, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询订阅方失败", err)
	}
	return &subscriber, nil
}

func (r *subscriberRepository) FindByUUID(uuid string) (*model.Subscriber, error) {
	var subscriber model.Subscriber
	if err := r.preloaded().Where("uuid = ?", uuid).First(&subscriber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询订阅方失败", err)
	}
	return &subscriber, nil
}

func (r *subscriberRepository) ListByProject(projectID int64) ([]*model.Subscriber, error) {
	var subscribers []*model.Subscriber
	if err := r.preloaded().Where("project_id = ?", projectID).Order("id ASC").Find(&subscribers).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询订阅方列表失败", err)
	}
	return subscribers, nil
}

// ListByVersion 当前运行该版本的订阅方
func (r *subscriberRepository) ListByVersion(versionID int64) ([]*model.Subscriber, error) {
	var subscribers []*model.Subscriber
	if err := r.preloaded().Where("project_version_id = ?", versionID).Order("id ASC").Find(&subscribers).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询订阅方列表失败", err)
	}
	return subscribers, nil
}

func (r *subscriberRepository) Update(subscriber *model.Subscriber) error {
	err := r.db.Model(&model.Subscriber{}).Where("id = ?", subscriber.ID).
		Updates(map[string]interface{}{"name": subscriber.Name, "full_agent": subscriber.FullAgent}).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新订阅方失败", err)
	}
	return nil
}

// UpdateToken 记录当前有效的 token id, 旧 token 随之失效
func (r *subscriberRepository) UpdateToken(id int64, tokenID string) error {
	if err := r.db.Model(&model.Subscriber{}).Where("id = ?", id).Update("token_id", tokenID).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新订阅方令牌失败", err)
	}
	return nil
}

func (r *subscriberRepository) SetVersion(id int64, versionID int64) error {
	if err := r.db.Model(&model.Subscriber{}).Where("id = ?", id).Update("project_version_id", versionID).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新订阅方版本失败", err)
	}
	return nil
}

func (r *subscriberRepository) Delete(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var repo model.HelmRepo
		err := tx.Where("subscriber_id = ?", id).First(&repo).Error
		if err == nil {
			if err := tx.Where("helm_repo_id = ?", repo.ID).Delete(&model.HelmUser{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&repo).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Delete(&model.Subscriber{}, id).Error
	})
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除订阅方失败", err)
	}
	return nil
}

func (r *subscriberRepository) CreateHelmUser(user *model.HelmUser) error {
	if err := r.db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建 helm 用户失败", err)
	}
	return nil
}

func (r *subscriberRepository) DeleteHelmUser(repoID int64, name string) error {
	result := r.db.Where("helm_repo_id = ? AND name = ?", repoID, name).Delete(&model.HelmUser{})
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除 helm 用户失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

// FindHelmUser 按仓库名与用户名查找, 用于 helm 仓库 basic auth
func (r *subscriberRepository) FindHelmUser(repoName, userName string) (*model.HelmUser, error) {
	var user model.HelmUser
	err := r.db.Joins("JOIN helm_repos ON helm_repos.id = helm_users.helm_repo_id").
		Where("helm_repos.name = ? AND helm_users.name = ?", repoName, userName).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询 helm 用户失败", err)
	}
	return &user, nil
}
