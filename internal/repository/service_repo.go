package repository

import (
	"errors"

	"gorm.io/gorm"

	"onprem-cd/internal/model"
	pkgErrors "onprem-cd/pkg/responses"
)

type ServiceRepository interface {
	Create(service *model.ProjectService) error
	FindByID(id int64) (*model.ProjectService, error)
	ListByVersion(versionID int64) ([]*model.ProjectService, error)
	Update(service *model.ProjectService) error
	Delete(id int64) error
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(service *model.ProjectService) error {
	if err := r.db.Create(service).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建服务失败", err)
	}
	return nil
}

func (r *serviceRepository) FindByID(id int64) (*model.ProjectService, error) {
	var service model.ProjectService
	if err := r.db.First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询服务失败", err)
	}
	return &service, nil
}

func (r *serviceRepository) ListByVersion(versionID int64) ([]*model.ProjectService, error) {
	var services []*model.ProjectService
	if err := r.db.Where("project_version_id = ?", versionID).Order("id ASC").Find(&services).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询服务列表失败", err)
	}
	return services, nil
}

func (r *serviceRepository) Update(service *model.ProjectService) error {
	if err := r.db.Save(service).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新服务失败", err)
	}
	return nil
}

func (r *serviceRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.ProjectService{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除服务失败", err)
	}
	return nil
}
