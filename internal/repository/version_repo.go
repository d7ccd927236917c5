package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"onprem-cd/internal/model"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

type VersionRepository interface {
	Create(version *model.ProjectVersion) error
	FindByID(id int64, opts ...QueryOption) (*model.ProjectVersion, error)
	FindSnapshot(id int64) (*model.ProjectVersion, error)
	FindByProjectAndVersion(projectID int64, version string) (*model.ProjectVersion, error)
	ListByProject(projectID int64) ([]*model.ProjectVersion, error)
	Update(version *model.ProjectVersion) error
	Delete(id int64) error
	Clone(source *model.ProjectVersion, version string, description *string) (*model.ProjectVersion, error)
	TransitionState(ctx context.Context, id int64, from, to string) error
	ListStuck(state string, before time.Time) ([]*model.ProjectVersion, error)
}

type versionRepository struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) Create(version *model.ProjectVersion) error {
	if err := r.db.Omit("Project", "Services", "Dependencies").Create(version).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建版本失败", err)
	}
	return nil
}

func (r *versionRepository) FindByID(id int64, opts ...QueryOption) (*model.ProjectVersion, error) {
	var version model.ProjectVersion
	err := applyOptions(r.db, opts).First(&version, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询版本失败", err)
	}
	return &version, nil
}

// FindSnapshot 加载版本及其项目, 服务, 依赖
func (r *versionRepository) FindSnapshot(id int64) (*model.ProjectVersion, error) {
	return r.FindByID(id,
		WithPreload("Project"),
		WithPreload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }),
		WithPreload("Dependencies", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }),
	)
}

func (r *versionRepository) FindByProjectAndVersion(projectID int64, version string) (*model.ProjectVersion, error) {
	var v model.ProjectVersion
	err := r.db.Where("project_id = ? AND version = ?", projectID, version).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询版本失败", err)
	}
	return &v, nil
}

func (r *versionRepository) ListByProject(projectID int64) ([]*model.ProjectVersion, error) {
	var versions []*model.ProjectVersion
	if err := r.db.Where("project_id = ?", projectID).Order("id DESC").Find(&versions).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询版本列表失败", err)
	}
	return versions, nil
}

// Update 只更新描述, 状态只能通过 TransitionState 修改
func (r *versionRepository) Update(version *model.ProjectVersion) error {
	err := r.db.Model(&model.ProjectVersion{}).Where("id = ?", version.ID).
		Update("description", version.Description).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新版本失败", err)
	}
	return nil
}

func (r *versionRepository) Delete(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_version_id = ?", id).Delete(&model.ProjectService{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_version_id = ?", id).Delete(&model.Dependency{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ProjectVersion{}, id).Error
	})
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除版本失败", err)
	}
	return nil
}

// Clone 以 source 为基础创建新草稿版本, 复制全部服务和依赖; source 需为快照
func (r *versionRepository) Clone(source *model.ProjectVersion, version string, description *string) (*model.ProjectVersion, error) {
	sourceID := source.ID
	clone := &model.ProjectVersion{
		ProjectID:         source.ProjectID,
		Version:           version,
		State:             constants.VersionStateDraft,
		Description:       description,
		PreviousVersionID: &sourceID,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Project", "Services", "Dependencies").Create(clone).Error; err != nil {
			return err
		}
		for _, s := range source.Services {
			s.ID = 0
			s.CreatedAt, s.UpdatedAt = time.Time{}, time.Time{}
			s.ProjectVersionID = clone.ID
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
			clone.Services = append(clone.Services, s)
		}
		for _, d := range source.Dependencies {
			d.ID = 0
			d.CreatedAt, d.UpdatedAt = time.Time{}, time.Time{}
			d.ProjectVersionID = clone.ID
			if err := tx.Create(&d).Error; err != nil {
				return err
			}
			clone.Dependencies = append(clone.Dependencies, d)
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, pkgErrors.ErrRecordExists
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "复制版本失败", err)
	}
	clone.Project = source.Project
	return clone, nil
}

// TransitionState 乐观锁迁移状态, 当前状态不是 from 时返回 ErrStateConflict
func (r *versionRepository) TransitionState(ctx context.Context, id int64, from, to string) error {
	if !constants.CanTransitVersion(from, to) {
		return pkgErrors.ErrStateConflict
	}

	updates := map[string]interface{}{"state": to}
	switch to {
	case constants.VersionStatePublished:
		updates["published_at"] = time.Now().UTC()
	case constants.VersionStateDraft:
		updates["published_at"] = nil
	}

	result := r.db.WithContext(ctx).Model(&model.ProjectVersion{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新版本状态失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrStateConflict
	}
	return nil
}

// ListStuck 在 state 停留到 before 之前的版本
func (r *versionRepository) ListStuck(state string, before time.Time) ([]*model.ProjectVersion, error) {
	var versions []*model.ProjectVersion
	err := r.db.Preload("Project").
		Where("state = ? AND updated_at < ?", state, before).
		Order("id ASC").
		Find(&versions).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询超时版本失败", err)
	}
	return versions, nil
}
