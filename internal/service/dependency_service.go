package service

import (
	"fmt"

	"github.com/samber/lo"

	"onprem-cd/internal/core/dependency"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/repository"
	pkgErrors "onprem-cd/pkg/responses"
)

// 更新时沿用已保存的值, 避免重新生成导致数据库名或用户变化
var stickyConfigKeys = []string{"db_name", "db_user"}

type DependencyService interface {
	Catalog() []*dependency.Kind
	Create(req *dto.CreateDependencyRequest) (*dto.DependencyResponse, error)
	GetByID(id int64) (*dto.DependencyResponse, error)
	ListByVersion(versionID int64) ([]*dto.DependencyResponse, error)
	Update(req *dto.UpdateDependencyRequest) (*dto.DependencyResponse, error)
	Delete(id int64) error
}

type dependencyService struct {
	repo        repository.DependencyRepository
	versionRepo repository.VersionRepository
}

func NewDependencyService(repo repository.DependencyRepository, versionRepo repository.VersionRepository) DependencyService {
	return &dependencyService{
		repo:        repo,
		versionRepo: versionRepo,
	}
}

func (s *dependencyService) Catalog() []*dependency.Kind {
	return dependency.All()
}

func (s *dependencyService) Create(req *dto.CreateDependencyRequest) (*dto.DependencyResponse, error) {
	if err := editableVersion(s.versionRepo, req.ProjectVersionID); err != nil {
		return nil, err
	}
	kind, err := lookupKind(req.ChartName, req.Version)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByVersion(req.ProjectVersionID)
	if err != nil {
		return nil, err
	}
	if lo.ContainsBy(existing, func(d *model.Dependency) bool { return d.Name == req.Name }) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict, fmt.Sprintf("依赖 %s 已存在", req.Name), nil)
	}

	configs, err := buildConfigs(kind, req.Configs, nil)
	if err != nil {
		return nil, err
	}

	dep := &model.Dependency{
		ProjectVersionID: req.ProjectVersionID,
		Name:             req.Name,
		ChartName:        kind.Name,
		Version:          req.Version,
		RepoURL:          kind.RepositoryURL,
		Configs:          configs,
	}
	if err := s.repo.Create(dep); err != nil {
		return nil, err
	}
	return toDependencyResponse(dep), nil
}

func (s *dependencyService) GetByID(id int64) (*dto.DependencyResponse, error) {
	dep, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return toDependencyResponse(dep), nil
}

func (s *dependencyService) ListByVersion(versionID int64) ([]*dto.DependencyResponse, error) {
	deps, err := s.repo.ListByVersion(versionID)
	if err != nil {
		return nil, err
	}
	return lo.Map(deps, func(d *model.Dependency, _ int) *dto.DependencyResponse {
		return toDependencyResponse(d)
	}), nil
}

func (s *dependencyService) Update(req *dto.UpdateDependencyRequest) (*dto.DependencyResponse, error) {
	dep, err := s.repo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := editableVersion(s.versionRepo, dep.ProjectVersionID); err != nil {
		return nil, err
	}
	kind, err := lookupKind(dep.ChartName, req.Version)
	if err != nil {
		return nil, err
	}

	configs, err := buildConfigs(kind, req.Configs, dep.Configs)
	if err != nil {
		return nil, err
	}
	dep.Version = req.Version
	dep.Configs = configs
	if err := s.repo.Update(dep); err != nil {
		return nil, err
	}
	return toDependencyResponse(dep), nil
}

func (s *dependencyService) Delete(id int64) error {
	dep, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if err := editableVersion(s.versionRepo, dep.ProjectVersionID); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func lookupKind(name, version string) (*dependency.Kind, error) {
	kind, err := dependency.Lookup(name)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, fmt.Sprintf("不支持的依赖类型 %s", name), err)
	}
	if !kind.HasVariant(version) {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, fmt.Sprintf("%s 不支持版本 %s", kind.HumanVisibleName, version))
	}
	return kind, nil
}

// buildConfigs 校验配置并补全凭据, previous 中的密码不会被覆盖
func buildConfigs(kind *dependency.Kind, raw map[string]interface{}, previous map[string]interface{}) (map[string]interface{}, error) {
	input := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		input[k] = v
	}
	for _, key := range stickyConfigKeys {
		if v, ok := input[key].(string); ok && v != "" {
			continue
		}
		if prev, ok := previous[key].(string); ok && prev != "" {
			input[key] = prev
		}
	}
	// 密码只由服务端生成
	delete(input, "db_password")

	cfg, err := kind.DecodeConfig(input)
	if err != nil {
		return nil, toAppError(err)
	}
	if err := cfg.FillSecrets(previous); err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成依赖凭据失败", err)
	}
	configs, err := dependency.ToMap(cfg)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "序列化依赖配置失败", err)
	}
	return configs, nil
}
