package service

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/dockerimage"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/crypto"
	"onprem-cd/internal/repository"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

// WorkloadService 版本内的容器服务管理
type WorkloadService interface {
	Create(req *dto.CreateServiceRequest) (*dto.ServiceResponse, error)
	GetByID(id int64) (*dto.ServiceResponse, error)
	ListByVersion(versionID int64) ([]*dto.ServiceResponse, error)
	Update(req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error)
	Delete(id int64) error
}

type workloadService struct {
	repo        repository.ServiceRepository
	versionRepo repository.VersionRepository
}

func NewWorkloadService(repo repository.ServiceRepository, versionRepo repository.VersionRepository) WorkloadService {
	return &workloadService{
		repo:        repo,
		versionRepo: versionRepo,
	}
}

func (s *workloadService) Create(req *dto.CreateServiceRequest) (*dto.ServiceResponse, error) {
	if err := editableVersion(s.versionRepo, req.ProjectVersionID); err != nil {
		return nil, err
	}
	if err := validateServiceFields(&req.ServiceFields); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByVersion(req.ProjectVersionID)
	if err != nil {
		return nil, err
	}
	if lo.ContainsBy(existing, func(e *model.ProjectService) bool { return e.Name == req.Name }) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict, fmt.Sprintf("服务 %s 已存在", req.Name), nil)
	}

	service := &model.ProjectService{ProjectVersionID: req.ProjectVersionID}
	if err := applyServiceFields(service, &req.ServiceFields); err != nil {
		return nil, err
	}
	if err := s.repo.Create(service); err != nil {
		return nil, err
	}
	return toServiceResponse(service), nil
}

func (s *workloadService) GetByID(id int64) (*dto.ServiceResponse, error) {
	service, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return toServiceResponse(service), nil
}

func (s *workloadService) ListByVersion(versionID int64) ([]*dto.ServiceResponse, error) {
	services, err := s.repo.ListByVersion(versionID)
	if err != nil {
		return nil, err
	}
	return lo.Map(services, func(svc *model.ProjectService, _ int) *dto.ServiceResponse {
		return toServiceResponse(svc)
	}), nil
}

func (s *workloadService) Update(req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error) {
	service, err := s.repo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := editableVersion(s.versionRepo, service.ProjectVersionID); err != nil {
		return nil, err
	}
	if err := validateServiceFields(&req.ServiceFields); err != nil {
		return nil, err
	}

	if req.Name != service.Name {
		siblings, err := s.repo.ListByVersion(service.ProjectVersionID)
		if err != nil {
			return nil, err
		}
		if lo.ContainsBy(siblings, func(e *model.ProjectService) bool { return e.Name == req.Name }) {
			return nil, pkgErrors.Wrap(pkgErrors.CodeConflict, fmt.Sprintf("服务 %s 已存在", req.Name), nil)
		}
	}

	if err := applyServiceFields(service, &req.ServiceFields); err != nil {
		return nil, err
	}
	if err := s.repo.Update(service); err != nil {
		return nil, err
	}
	return toServiceResponse(service), nil
}

func (s *workloadService) Delete(id int64) error {
	service, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if err := editableVersion(s.versionRepo, service.ProjectVersionID); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// editableVersion 只有草稿和失败的版本可以修改
func editableVersion(repo repository.VersionRepository, versionID int64) error {
	version, err := repo.FindByID(versionID)
	if err != nil {
		return err
	}
	if !constants.IsVersionEditable(version.State) {
		return pkgErrors.ErrVersionLocked
	}
	return nil
}

// validateServiceFields 镜像可解析, 环境变量与 secret 名称各自唯一且互不重复, 端口唯一
func validateServiceFields(f *dto.ServiceFields) error {
	if _, err := dockerimage.Parse(f.Image); err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeBadRequest, "镜像地址不合法", err)
	}

	envNames := lo.Map(f.EnvironmentVariables, func(v dto.EnvironmentVariable, _ int) string { return v.Name })
	if dup := lo.FindDuplicates(envNames); len(dup) > 0 {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "环境变量名称重复: "+strings.Join(dup, ", "))
	}
	if dup := lo.FindDuplicates(f.Secrets); len(dup) > 0 {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "secret 名称重复: "+strings.Join(dup, ", "))
	}
	if both := lo.Intersect(envNames, f.Secrets); len(both) > 0 {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "环境变量与 secret 名称冲突: "+strings.Join(both, ", "))
	}
	for _, key := range f.Secrets {
		if _, err := chart.SecretName(key); err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeBadRequest, "secret 名称不合法", err)
		}
	}
	if dup := lo.FindDuplicates(f.Ports); len(dup) > 0 {
		return pkgErrors.New(pkgErrors.CodeBadRequest, fmt.Sprintf("端口重复: %v", dup))
	}

	if f.PVCSizeBytes != nil && (f.PVCMountPath == nil || strings.TrimSpace(*f.PVCMountPath) == "") {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "持久卷需要指定挂载路径")
	}
	return nil
}

func applyServiceFields(service *model.ProjectService, f *dto.ServiceFields) error {
	service.Name = f.Name
	service.Image = f.Image
	service.ImageUsername = f.ImageUsername
	if f.ImagePassword != nil {
		service.ImagePassword = *f.ImagePassword
	}
	service.CPUCores = f.CPUCores
	service.MemoryBytes = f.MemoryBytes
	service.EnvironmentVars = lo.Map(f.EnvironmentVariables, func(v dto.EnvironmentVariable, _ int) model.EnvironmentVariable {
		return model.EnvironmentVariable{Name: v.Name, Value: v.Value}
	})
	service.Secrets = append(model.StringList{}, f.Secrets...)
	service.Ports = append(model.IntList{}, f.Ports...)
	service.PredeployCommand = f.PredeployCommand
	service.IngressPort = f.IngressPort

	service.PVCSizeBytes = f.PVCSizeBytes
	if f.PVCSizeBytes == nil {
		service.PVCMountPath = nil
		return nil
	}
	service.PVCMountPath = f.PVCMountPath
	// 持久卷名称只生成一次, 之后的修改保持不变
	if service.PVCName == nil {
		suffix, err := crypto.RandomHex(3)
		if err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成持久卷名称失败", err)
		}
		name := "pvc-" + suffix
		service.PVCName = &name
	}
	return nil
}
