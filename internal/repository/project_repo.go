package repository

import (
	"errors"

	"gorm.io/gorm"

	"onprem-cd/internal/model"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

type ProjectRepository interface {
	Create(project *model.Project) error
	FindByID(id int64) (*model.Project, error)
	FindByName(name string) (*model.Project, error)
	List(page, pageSize int, keyword string) ([]*model.Project, int64, error)
	ListAll() ([]*model.Project, error)
	Update(project *model.Project) error
	Delete(id int64) error
	// Usage 统计项目下的版本与订阅方
	Usage(id int64) (*model.ProjectUsage, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(project *model.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", err)
	}
	return nil
}

func (r *projectRepository) FindByID(id int64) (*model.Project, error) {
	return r.findOne(r.db.Where("id = ?", id))
}

func (r *projectRepository) FindByName(name string) (*model.Project, error) {
	return r.findOne(r.db.Where("name = ?", name))
}

func (r *projectRepository) findOne(query *gorm.DB) (*model.Project, error) {
	var project model.Project
	if err := query.First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &project, nil
}

func (r *projectRepository) List(page, pageSize int, keyword string) ([]*model.Project, int64, error) {
	var projects []*model.Project
	var total int64

	query := r.db.Model(&model.Project{})
	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR owner_name LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目数量失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id DESC").Find(&projects).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, total, nil
}

func (r *projectRepository) ListAll() ([]*model.Project, error) {
	var projects []*model.Project
	if err := r.db.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, nil
}

func (r *projectRepository) Update(project *model.Project) error {
	err := r.db.Model(project).Select("description", "owner_name").Updates(project).Error
	if err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新项目失败", err)
	}
	return nil
}

func (r *projectRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Project{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目失败", err)
	}
	return nil
}

func (r *projectRepository) Usage(id int64) (*model.ProjectUsage, error) {
	usage := &model.ProjectUsage{}
	if err := r.db.Model(&model.ProjectVersion{}).Where("project_id = ?", id).
		Count(&usage.VersionCount).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目版本失败", err)
	}
	if err := r.db.Model(&model.Subscriber{}).Where("project_id = ?", id).
		Count(&usage.SubscriberCount).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目订阅方失败", err)
	}

	var latest []string
	err := r.db.Model(&model.ProjectVersion{}).
		Where("project_id = ? AND state = ?", id, constants.VersionStatePublished).
		Order("published_at DESC").Limit(1).
		Pluck("version", &latest).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询最新发布版本失败", err)
	}
	if len(latest) > 0 {
		usage.LatestPublished = latest[0]
	}
	return usage, nil
}
