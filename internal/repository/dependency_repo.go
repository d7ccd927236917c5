package repository

import (
	"errors"

	"gorm.io/gorm"

	"onprem-cd/internal/model"
	pkgErrors "onprem-cd/pkg/responses"
)

type DependencyRepository interface {
	Create(dependency *model.Dependency) error
	FindByID(id int64) (*model.Dependency, error)
	ListByVersion(versionID int64) ([]*model.Dependency, error)
	Update(dependency *model.Dependency) error
	Delete(id int64) error
}

type dependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) DependencyRepository {
	return &dependencyRepository{db: db}
}

func (r *dependencyRepository) Create(dependency *model.Dependency) error {
	if err := r.db.Create(dependency).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建依赖失败", err)
	}
	return nil
}

func (r *dependencyRepository) FindByID(id int64) (*model.Dependency, error) {
	var dependency model.Dependency
	if err := r.db.First(&dependency, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询依赖失败", err)
	}
	return &dependency, nil
}

func (r *dependencyRepository) ListByVersion(versionID int64) ([]*model.Dependency, error) {
	var dependencies []*model.Dependency
	if err := r.db.Where("project_version_id = ?", versionID).Order("id ASC").Find(&dependencies).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询依赖列表失败", err)
	}
	return dependencies, nil
}

func (r *dependencyRepository) Update(dependency *model.Dependency) error {
	if err := r.db.Save(dependency).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新依赖失败", err)
	}
	return nil
}

func (r *dependencyRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Dependency{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除依赖失败", err)
	}
	return nil
}
