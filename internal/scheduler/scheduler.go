package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/metrics"
	"onprem-cd/internal/repository"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

const (
	jobHeartbeatPrune = "heartbeat_prune"
	jobStuckSweep     = "stuck_sweep"
)

// Scheduler 调度器
type Scheduler struct {
	cron          *cron.Cron
	logger        *zap.Logger
	cfg           *config.Config
	versionRepo   repository.VersionRepository
	agentRepo     repository.AgentRepository
	notifier      notification.Notifier
	now           func() time.Time
	cronSchedules map[string]cron.EntryID // 存储任务ID，便于管理
}

// NewScheduler 创建调度器
func NewScheduler(
	versionRepo repository.VersionRepository,
	agentRepo repository.AgentRepository,
	notifier notification.Notifier,
	logger *zap.Logger,
	cfg *config.Config,
) *Scheduler {
	// 创建 cron 实例（带秒级支持）
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:          c,
		logger:        logger,
		cfg:           cfg,
		versionRepo:   versionRepo,
		agentRepo:     agentRepo,
		notifier:      notifier,
		now:           time.Now,
		cronSchedules: make(map[string]cron.EntryID),
	}
}

// Start 注册维护任务并启动调度器
func (s *Scheduler) Start() error {
	log := s.logger.Sugar()

	log.Info("启动定时任务调度器...")

	// cron 表达式格式: 秒 分 时 日 月 周
	jobs := []struct {
		name string
		expr string
		run  func(ctx context.Context) error
	}{
		{jobHeartbeatPrune, s.cfg.Heartbeat.PruneCron, func(ctx context.Context) error {
			_, err := s.PruneHeartbeats(ctx)
			return err
		}},
		{jobStuckSweep, s.cfg.Publish.SweepCron, func(ctx context.Context) error {
			_, err := s.SweepStuckVersions(ctx)
			return err
		}},
	}

	for _, job := range jobs {
		job := job
		if job.expr == "" {
			log.Warnf("未配置 %s 的 cron 表达式, 跳过", job.name)
			continue
		}
		entryID, err := s.cron.AddFunc(job.expr, func() {
			s.runJob(job.name, job.run)
		})
		if err != nil {
			log.Errorf("注册定时任务 %s: %v 失败: %v", job.name, job.expr, err)
			return err
		}
		s.cronSchedules[job.name] = entryID
		log.Infof("定时任务已注册: %s %s entry_id=%d", job.name, job.expr, entryID)
	}

	s.cron.Start()
	log.Info("定时任务调度器启动成功")

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.logger.Info("正在停止定时任务调度器...")

	// 停止 cron（等待正在执行的任务完成）
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("定时任务调度器已停止")
}

func (s *Scheduler) runJob(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx); err != nil {
		metrics.JobRunsTotal.WithLabelValues(name, "error").Inc()
		s.logger.Error("定时任务执行失败", zap.String("job", name), zap.Error(err))
		return
	}
	metrics.JobRunsTotal.WithLabelValues(name, "ok").Inc()
}

// PruneHeartbeats 删除超出保留天数的心跳事件
func (s *Scheduler) PruneHeartbeats(ctx context.Context) (int64, error) {
	retention := s.cfg.Heartbeat.RetentionDays
	if retention <= 0 {
		return 0, nil
	}
	before := s.now().UTC().AddDate(0, 0, -retention)

	deleted, err := s.agentRepo.PruneEvents(ctx, before)
	if err != nil {
		return 0, err
	}
	s.logger.Info("清理心跳事件", zap.Int64("deleted", deleted), zap.Time("before", before))
	return deleted, nil
}

// SweepStuckVersions 将停留在 building 超时的版本标记为失败
func (s *Scheduler) SweepStuckVersions(ctx context.Context) (int, error) {
	timeout := s.cfg.Publish.StuckTimeout
	if timeout <= 0 {
		return 0, nil
	}

	versions, err := s.versionRepo.ListStuck(constants.VersionStateBuilding, s.now().UTC().Add(-timeout))
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, v := range versions {
		err := s.versionRepo.TransitionState(ctx, v.ID, constants.VersionStateBuilding, constants.VersionStateFailed)
		if errors.Is(err, pkgErrors.ErrStateConflict) {
			// 发布流程已先一步完成
			continue
		}
		if err != nil {
			return swept, err
		}
		swept++

		s.logger.Warn("版本发布超时", zap.Int64("version_id", v.ID), zap.String("version", v.Version))
		event := &notification.PublishEvent{
			VersionID:   v.ID,
			ProjectName: v.ProjectName(),
			Version:     v.Version,
		}
		message := fmt.Sprintf("版本在 building 状态停留超过 %s", timeout)
		if err := s.notifier.SendPublishNotification(ctx, event, notification.NotifyVersionStuck, message); err != nil {
			s.logger.Warn("发送超时通知失败", zap.Int64("version_id", v.ID), zap.Error(err))
		}
	}
	return swept, nil
}
