package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/core/heartbeat"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/jwt"
	"onprem-cd/internal/pkg/metrics"
	"onprem-cd/internal/repository"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

// AgentService agent 协议: 鉴权, 心跳, 拉取待执行动作, 健康状况
type AgentService interface {
	Authenticate(token string) (*model.Subscriber, error)
	Heartbeat(ctx context.Context, subscriber *model.Subscriber, req *dto.HeartbeatRequest) (*dto.HeartbeatResponse, error)
	Apply(ctx context.Context, subscriber *model.Subscriber) (*dto.ApplyResponse, error)
	Status(subscriberID int64) (*dto.SubscriberStatusResponse, error)
}

type agentService struct {
	repo           repository.AgentRepository
	subscriberRepo repository.SubscriberRepository
	versionRepo    repository.VersionRepository
	helmRepo       *blobstore.RepoClient
	signer         *jwt.Signer
	engine         *heartbeat.Engine
	now            func() time.Time
	logger         *zap.Logger
}

func NewAgentService(
	repo repository.AgentRepository,
	subscriberRepo repository.SubscriberRepository,
	versionRepo repository.VersionRepository,
	helmRepo *blobstore.RepoClient,
	signer *jwt.Signer,
	engine *heartbeat.Engine,
	logger *zap.Logger,
) AgentService {
	return &agentService{
		repo:           repo,
		subscriberRepo: subscriberRepo,
		versionRepo:    versionRepo,
		helmRepo:       helmRepo,
		signer:         signer,
		engine:         engine,
		now:            time.Now,
		logger:         logger,
	}
}

// Authenticate 校验令牌签名, 且令牌 ID 必须是订阅方当前的令牌
func (s *agentService) Authenticate(token string) (*model.Subscriber, error) {
	claims, err := s.signer.ParseToken(token)
	if err != nil {
		return nil, pkgErrors.ErrInvalidToken
	}
	subscriber, err := s.subscriberRepo.FindByID(claims.SubscriberID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrInvalidToken
		}
		return nil, err
	}
	if subscriber.UUID != claims.Subject || subscriber.TokenID == nil || *subscriber.TokenID != claims.ID {
		return nil, pkgErrors.ErrInvalidToken
	}
	return subscriber, nil
}

func (s *agentService) Heartbeat(ctx context.Context, subscriber *model.Subscriber, req *dto.HeartbeatRequest) (*dto.HeartbeatResponse, error) {
	payload := map[string]interface{}{}
	if req.Identity.VersionID != "" {
		payload["version_id"] = req.Identity.VersionID
	}

	instance, err := s.repo.RecordHeartbeat(ctx, &repository.HeartbeatRecord{
		SubscriberID: subscriber.ID,
		Name:         req.Identity.Name,
		LifecycleID:  req.Identity.LifecycleID,
		SessionID:    req.Identity.SessionID,
		Payload:      payload,
		At:           s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.HeartbeatsTotal.Inc()
	s.logger.Debug("收到 agent 心跳",
		zap.Int64("subscriber_id", subscriber.ID),
		zap.Int64("instance_id", instance.ID),
		zap.String("name", instance.Name))
	return &dto.HeartbeatResponse{}, nil
}

// Apply 取出最早的待执行动作, 附带对应版本的 chart 归档
func (s *agentService) Apply(ctx context.Context, subscriber *model.Subscriber) (*dto.ApplyResponse, error) {
	action, err := s.repo.ClaimPendingAction(ctx, subscriber.ID)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return &dto.ApplyResponse{}, nil
	}

	resp := &dto.AgentAction{ID: action.ID, Type: action.Type}
	if action.Type != constants.AgentActionApplyVersion {
		return &dto.ApplyResponse{Action: resp}, nil
	}

	versionID, ok := toInt64(action.Payload["project_version_id"])
	if !ok {
		s.logger.Warn("agent 动作缺少版本", zap.Int64("action_id", action.ID))
		return &dto.ApplyResponse{Action: resp}, nil
	}
	resp.ProjectVersionID = versionID

	version, err := s.versionRepo.FindByID(versionID, repository.WithPreload("Project"))
	if err != nil {
		return nil, err
	}
	resp.ChartFile = blobstore.ChartFileName(version.ProjectName(), version.Version)

	dir, ok := chartDirectory(subscriber)
	if !ok {
		s.logger.Warn("订阅方没有 helm 用户, 不下发 chart", zap.Int64("subscriber_id", subscriber.ID))
		return &dto.ApplyResponse{Action: resp}, nil
	}
	archive, _, err := s.helmRepo.Fetch(ctx, dir, resp.ChartFile)
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		s.logger.Warn("chart 归档不存在", zap.String("directory", dir), zap.String("file", resp.ChartFile))
	case err != nil:
		return nil, toAppError(err)
	default:
		resp.Chart = archive
	}
	return &dto.ApplyResponse{Action: resp}, nil
}

// Status 订阅方全部实例在统计窗口内的每日状态
func (s *agentService) Status(subscriberID int64) (*dto.SubscriberStatusResponse, error) {
	if _, err := s.subscriberRepo.FindByID(subscriberID); err != nil {
		return nil, err
	}
	instances, err := s.repo.ListInstances(subscriberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := now.AddDate(0, 0, -(s.engine.WindowDays() + 1))
	logs := make([]heartbeat.InstanceLog, 0, len(instances))
	for _, inst := range instances {
		times, err := s.repo.HeartbeatTimes(inst.ID, since)
		if err != nil {
			return nil, err
		}
		first, err := s.repo.FirstHeartbeat(inst.ID)
		if err != nil {
			return nil, err
		}

		log := heartbeat.Log{Heartbeats: times}
		if first != nil {
			log.FirstHeartbeat = *first
		}
		if inst.LastHeartbeatAt != nil {
			log.LastHeartbeat = *inst.LastHeartbeatAt
		}
		logs = append(logs, heartbeat.InstanceLog{
			Name:    instanceKey(inst),
			Healthy: inst.Healthy(now, heartbeat.HealthyTimeout),
			Log:     log,
		})
	}

	group := s.engine.Aggregate(logs, now)
	resp := &dto.SubscriberStatusResponse{
		SubscriberID:     subscriberID,
		CurrentStatus:    group.CurrentStatus,
		UptimePercentage: group.UptimePercentage,
		Days:             group.Days,
		Instances:        make([]*dto.AgentInstanceResponse, 0, len(instances)),
	}
	for _, inst := range instances {
		resp.Instances = append(resp.Instances, &dto.AgentInstanceResponse{
			ID:              inst.ID,
			Name:            inst.Name,
			LifecycleID:     inst.LifecycleID,
			Healthy:         inst.Healthy(now, heartbeat.HealthyTimeout),
			LastHeartbeatAt: dto.FormatTimePtr(inst.LastHeartbeatAt),
			Days:            group.PerInstance[instanceKey(inst)],
		})
	}
	return resp, nil
}

// instanceKey 同名 agent 每次重启产生新的 lifecycle, 汇总时按实例区分
func instanceKey(inst *model.AgentInstance) string {
	return inst.Name + "/" + inst.LifecycleID
}

// chartDirectory agent 从订阅方第一个 helm 用户的目录获取 chart
func chartDirectory(subscriber *model.Subscriber) (string, bool) {
	if subscriber.HelmRepo == nil || len(subscriber.HelmRepo.HelmUsers) == 0 {
		return "", false
	}
	first := lo.MinBy(subscriber.HelmRepo.HelmUsers, func(a, b model.HelmUser) bool { return a.ID < b.ID })
	return blobstore.Directory(subscriber.HelmRepo.Name, first.Name), true
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
