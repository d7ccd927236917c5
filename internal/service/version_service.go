package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/comparison"
	"onprem-cd/internal/core/publisher"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/repository"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ChartPublisher 版本发布
type ChartPublisher interface {
	Publish(ctx context.Context, req *publisher.Request) error
	PublishTo(ctx context.Context, req *publisher.Request) error
	Generate(ctx context.Context, v *model.ProjectVersion, subscriber *chart.Subscriber) ([]byte, error)
}

type VersionService interface {
	Create(req *dto.CreateVersionRequest) (*dto.VersionResponse, error)
	GetByID(id int64) (*dto.VersionResponse, error)
	List(projectID int64) ([]*dto.VersionResponse, error)
	Update(req *dto.UpdateVersionRequest) (*dto.VersionResponse, error)
	Delete(id int64) error
	Compare(query *dto.CompareVersionQuery) (*dto.ComparisonResponse, error)
	Publish(ctx context.Context, id int64) (*dto.PublishVersionResponse, error)
	Unpublish(ctx context.Context, id int64) (*dto.VersionResponse, error)
	Preview(ctx context.Context, query *dto.PreviewVersionQuery) ([]byte, error)
	ValuesPreview(query *dto.PreviewVersionQuery) (*dto.ValuesPreviewResponse, error)
}

type versionService struct {
	repo           repository.VersionRepository
	projectRepo    repository.ProjectRepository
	subscriberRepo repository.SubscriberRepository
	publisher      ChartPublisher
	assembler      *chart.Assembler
	targets        *TargetBuilder
	logger         *zap.Logger
}

func NewVersionService(
	repo repository.VersionRepository,
	projectRepo repository.ProjectRepository,
	subscriberRepo repository.SubscriberRepository,
	publisher ChartPublisher,
	assembler *chart.Assembler,
	targets *TargetBuilder,
	logger *zap.Logger,
) VersionService {
	return &versionService{
		repo:           repo,
		projectRepo:    projectRepo,
		subscriberRepo: subscriberRepo,
		publisher:      publisher,
		assembler:      assembler,
		targets:        targets,
		logger:         logger,
	}
}

func (s *versionService) Create(req *dto.CreateVersionRequest) (*dto.VersionResponse, error) {
	if !semverPattern.MatchString(req.Version) {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "版本号格式必须为 x.y.z")
	}
	project, err := s.projectRepo.FindByID(req.ProjectID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByProjectAndVersion(req.ProjectID, req.Version)
	if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict,
			fmt.Sprintf("版本 %s 已存在", req.Version), nil)
	}

	var version *model.ProjectVersion
	if req.CloneFromID != nil {
		source, err := s.repo.FindSnapshot(*req.CloneFromID)
		if err != nil {
			return nil, err
		}
		if source.ProjectID != req.ProjectID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "只能复制同一项目的版本")
		}
		version, err = s.repo.Clone(source, req.Version, req.Description)
		if err != nil {
			return nil, err
		}
	} else {
		version = &model.ProjectVersion{
			ProjectID:   req.ProjectID,
			Version:     req.Version,
			State:       constants.VersionStateDraft,
			Description: req.Description,
		}
		if err := s.repo.Create(version); err != nil {
			return nil, err
		}
	}
	version.Project = project
	return toVersionResponse(version), nil
}

func (s *versionService) GetByID(id int64) (*dto.VersionResponse, error) {
	version, err := s.repo.FindSnapshot(id)
	if err != nil {
		return nil, err
	}
	return toVersionResponse(version), nil
}

func (s *versionService) List(projectID int64) ([]*dto.VersionResponse, error) {
	versions, err := s.repo.ListByProject(projectID)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.VersionResponse, len(versions))
	for i, v := range versions {
		responses[i] = toVersionResponse(v)
	}
	return responses, nil
}

func (s *versionService) Update(req *dto.UpdateVersionRequest) (*dto.VersionResponse, error) {
	version, err := s.repo.FindByID(req.ID, repository.WithPreload("Project"))
	if err != nil {
		return nil, err
	}
	version.Description = req.Description
	if err := s.repo.Update(version); err != nil {
		return nil, err
	}
	return toVersionResponse(version), nil
}

func (s *versionService) Delete(id int64) error {
	version, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if !constants.IsVersionEditable(version.State) {
		return pkgErrors.ErrVersionLocked
	}

	subscribers, err := s.subscriberRepo.ListByVersion(id)
	if err != nil {
		return err
	}
	if len(subscribers) > 0 {
		return pkgErrors.Wrap(pkgErrors.CodeConflict,
			fmt.Sprintf("版本正在被 %d 个订阅方使用, 不能删除", len(subscribers)), nil)
	}
	return s.repo.Delete(id)
}

func (s *versionService) Compare(query *dto.CompareVersionQuery) (*dto.ComparisonResponse, error) {
	base, err := s.repo.FindSnapshot(query.BaseID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.repo.FindSnapshot(query.IncomingID)
	if err != nil {
		return nil, err
	}
	if base.ProjectID != incoming.ProjectID {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "只能对比同一项目的版本")
	}
	return comparison.Compare(base, incoming), nil
}

// Publish 校验并发布到项目全部订阅方的仓库, 订阅方切换版本需单独部署
func (s *versionService) Publish(ctx context.Context, id int64) (*dto.PublishVersionResponse, error) {
	version, err := s.repo.FindSnapshot(id)
	if err != nil {
		return nil, err
	}
	if len(version.Services) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "版本没有任何服务, 不能发布")
	}

	subscribers, err := s.subscriberRepo.ListByProject(version.ProjectID)
	if err != nil {
		return nil, err
	}
	targets, err := s.targets.buildAll(subscribers)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, &publisher.Request{Version: version, Targets: targets}); err != nil {
		return nil, toAppError(err)
	}

	published, err := s.repo.FindByID(id, repository.WithPreload("Project"))
	if err != nil {
		return nil, err
	}
	resp := &dto.PublishVersionResponse{
		Version:     toVersionResponse(published),
		Directories: []string{},
	}
	for _, t := range targets {
		resp.Directories = append(resp.Directories, t.Directories...)
	}
	return resp, nil
}

// Unpublish published -> draft, 已部署的订阅方不受影响
func (s *versionService) Unpublish(ctx context.Context, id int64) (*dto.VersionResponse, error) {
	version, err := s.repo.FindByID(id, repository.WithPreload("Project"))
	if err != nil {
		return nil, err
	}
	if version.State != constants.VersionStatePublished {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict, "只有已发布的版本可以撤回", nil)
	}
	if err := s.repo.TransitionState(ctx, id, constants.VersionStatePublished, constants.VersionStateDraft); err != nil {
		return nil, err
	}
	s.logger.Info("版本已撤回", zap.Int64("version_id", id), zap.String("version", version.Version))

	version.State = constants.VersionStateDraft
	version.PublishedAt = nil
	return toVersionResponse(version), nil
}

func (s *versionService) Preview(ctx context.Context, query *dto.PreviewVersionQuery) ([]byte, error) {
	version, target, err := s.previewInput(query)
	if err != nil {
		return nil, err
	}
	archive, err := s.publisher.Generate(ctx, version, target)
	if err != nil {
		return nil, toAppError(err)
	}
	return archive, nil
}

func (s *versionService) ValuesPreview(query *dto.PreviewVersionQuery) (*dto.ValuesPreviewResponse, error) {
	version, target, err := s.previewInput(query)
	if err != nil {
		return nil, err
	}
	params, err := s.assembler.Assemble(version, target)
	if err != nil {
		return nil, toAppError(err)
	}
	data, err := chart.ValuesYAML(params)
	if err != nil {
		return nil, toAppError(err)
	}
	return &dto.ValuesPreviewResponse{Values: string(data)}, nil
}

func (s *versionService) previewInput(query *dto.PreviewVersionQuery) (*model.ProjectVersion, *chart.Subscriber, error) {
	version, err := s.repo.FindSnapshot(query.ID)
	if err != nil {
		return nil, nil, err
	}
	if query.SubscriberID == nil {
		return version, nil, nil
	}

	subscriber, err := s.subscriberRepo.FindByID(*query.SubscriberID)
	if err != nil {
		return nil, nil, err
	}
	if subscriber.ProjectID != version.ProjectID {
		return nil, nil, pkgErrors.New(pkgErrors.CodeBadRequest, "订阅方不属于该项目")
	}
	target, err := s.targets.build(subscriber)
	if err != nil {
		return nil, nil, err
	}
	return version, target.Subscriber, nil
}
