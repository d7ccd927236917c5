package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/core/publisher"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/crypto"
	"onprem-cd/internal/pkg/jwt"
	"onprem-cd/internal/repository"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

type SubscriberService interface {
	Create(req *dto.CreateSubscriberRequest) (*dto.SubscriberResponse, error)
	GetByID(id int64) (*dto.SubscriberResponse, error)
	List(projectID int64) ([]*dto.SubscriberResponse, error)
	Update(req *dto.UpdateSubscriberRequest) (*dto.SubscriberResponse, error)
	Delete(id int64) error

	IssueToken(id int64) (*dto.AgentTokenResponse, error)
	CreateHelmUser(req *dto.CreateHelmUserRequest) (*dto.HelmUserResponse, error)
	DeleteHelmUser(req *dto.DeleteHelmUserRequest) error
	Deploy(ctx context.Context, req *dto.DeploySubscriberRequest) (*dto.SubscriberResponse, error)
}

type subscriberService struct {
	repo        repository.SubscriberRepository
	projectRepo repository.ProjectRepository
	versionRepo repository.VersionRepository
	agentRepo   repository.AgentRepository
	publisher   ChartPublisher
	targets     *TargetBuilder
	signer      *jwt.Signer
	publicURL   string
	logger      *zap.Logger
}

func NewSubscriberService(
	repo repository.SubscriberRepository,
	projectRepo repository.ProjectRepository,
	versionRepo repository.VersionRepository,
	agentRepo repository.AgentRepository,
	publisher ChartPublisher,
	targets *TargetBuilder,
	signer *jwt.Signer,
	publicURL string,
	logger *zap.Logger,
) SubscriberService {
	return &subscriberService{
		repo:        repo,
		projectRepo: projectRepo,
		versionRepo: versionRepo,
		agentRepo:   agentRepo,
		publisher:   publisher,
		targets:     targets,
		signer:      signer,
		publicURL:   strings.TrimRight(publicURL, "/"),
		logger:      logger,
	}
}

func (s *subscriberService) Create(req *dto.CreateSubscriberRequest) (*dto.SubscriberResponse, error) {
	project, err := s.projectRepo.FindByID(req.ProjectID)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	subscriber := &model.Subscriber{
		UUID:      uuid.NewString(),
		ProjectID: project.ID,
		Name:      req.Name,
		FullAgent: req.FullAgent,
		TokenID:   &tokenID,
	}
	// helm 仓库名与项目名相同
	if err := s.repo.Create(subscriber, project.Name); err != nil {
		return nil, err
	}
	return s.GetByID(subscriber.ID)
}

func (s *subscriberService) GetByID(id int64) (*dto.SubscriberResponse, error) {
	subscriber, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return toSubscriberResponse(subscriber), nil
}

func (s *subscriberService) List(projectID int64) ([]*dto.SubscriberResponse, error) {
	subscribers, err := s.repo.ListByProject(projectID)
	if err != nil {
		return nil, err
	}
	return lo.Map(subscribers, func(sub *model.Subscriber, _ int) *dto.SubscriberResponse {
		return toSubscriberResponse(sub)
	}), nil
}

func (s *subscriberService) Update(req *dto.UpdateSubscriberRequest) (*dto.SubscriberResponse, error) {
	subscriber, err := s.repo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		subscriber.Name = *req.Name
	}
	if req.FullAgent != nil {
		subscriber.FullAgent = *req.FullAgent
	}
	if err := s.repo.Update(subscriber); err != nil {
		return nil, err
	}
	return toSubscriberResponse(subscriber), nil
}

func (s *subscriberService) Delete(id int64) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// IssueToken 重新签发 agent 令牌, 旧令牌立即失效
func (s *subscriberService) IssueToken(id int64) (*dto.AgentTokenResponse, error) {
	subscriber, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	if err := s.repo.UpdateToken(subscriber.ID, tokenID); err != nil {
		return nil, err
	}
	token, err := s.signer.GenerateAgentToken(subscriber.ID, subscriber.UUID, tokenID)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "签发令牌失败", err)
	}
	return &dto.AgentTokenResponse{Token: token}, nil
}

// CreateHelmUser 同名仓库下用户名唯一, 保证 {repo}-{user} 目录不会被其他订阅方占用
func (s *subscriberService) CreateHelmUser(req *dto.CreateHelmUserRequest) (*dto.HelmUserResponse, error) {
	subscriber, err := s.repo.FindByID(req.SubscriberID)
	if err != nil {
		return nil, err
	}
	if subscriber.HelmRepo == nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "订阅方缺少 helm 仓库", nil)
	}
	repo := subscriber.HelmRepo

	if existing, _ := s.repo.FindHelmUser(repo.Name, req.Name); existing != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict,
			fmt.Sprintf("helm 用户 %s 已存在", req.Name), nil)
	}

	password, err := crypto.RandomHex(16)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成密码失败", err)
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "密码加密失败", err)
	}
	if err := s.repo.CreateHelmUser(&model.HelmUser{HelmRepoID: repo.ID, Name: req.Name, PasswordHash: hash}); err != nil {
		return nil, err
	}

	return &dto.HelmUserResponse{
		Name:      req.Name,
		Password:  password,
		Directory: blobstore.Directory(repo.Name, req.Name),
		AddRepoCommand: fmt.Sprintf("helm repo add %s %s/helm/%s --username %s --password %s",
			repo.Name, s.publicURL, repo.Name, req.Name, password),
	}, nil
}

func (s *subscriberService) DeleteHelmUser(req *dto.DeleteHelmUserRequest) error {
	subscriber, err := s.repo.FindByID(req.SubscriberID)
	if err != nil {
		return err
	}
	if subscriber.HelmRepo == nil {
		return pkgErrors.ErrRecordNotFound
	}
	return s.repo.DeleteHelmUser(subscriber.HelmRepo.ID, req.Name)
}

// Deploy 将已发布版本推送到订阅方仓库, 成功后切换订阅方版本并下发 apply 动作
func (s *subscriberService) Deploy(ctx context.Context, req *dto.DeploySubscriberRequest) (*dto.SubscriberResponse, error) {
	subscriber, err := s.repo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}
	version, err := s.versionRepo.FindSnapshot(req.ProjectVersionID)
	if err != nil {
		return nil, err
	}
	if version.ProjectID != subscriber.ProjectID {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "版本不属于订阅方的项目")
	}
	if version.State != constants.VersionStatePublished {
		return nil, pkgErrors.Wrap(pkgErrors.CodeConflict, "只能部署已发布的版本", nil)
	}

	target, err := s.targets.build(subscriber)
	if err != nil {
		return nil, err
	}
	// 先生成 chart 再切换版本, 失败时订阅方保持原版本
	if err := s.publisher.PublishTo(ctx, &publisher.Request{Version: version, Targets: []publisher.Target{target}}); err != nil {
		return nil, toAppError(err)
	}

	if err := s.repo.SetVersion(subscriber.ID, version.ID); err != nil {
		return nil, err
	}
	action := &model.AgentAction{
		SubscriberID: subscriber.ID,
		Type:         constants.AgentActionApplyVersion,
		Status:       constants.AgentActionStatusPending,
		Payload:      datatypes.JSONMap{"project_version_id": version.ID},
	}
	if err := s.agentRepo.CreateAction(action); err != nil {
		return nil, err
	}

	s.logger.Info("订阅方切换版本",
		zap.Int64("subscriber_id", subscriber.ID),
		zap.String("version", version.Version),
		zap.Int64("action_id", action.ID))

	subscriber.ProjectVersionID = &version.ID
	return toSubscriberResponse(subscriber), nil
}
