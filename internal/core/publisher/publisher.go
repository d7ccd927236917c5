// Package publisher 校验并发布项目版本的 chart
package publisher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/adapter/sidecar"
	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/metrics"
	"onprem-cd/pkg/constants"
	"onprem-cd/pkg/responses"
)

// VersionStore 版本状态的持久化
type VersionStore interface {
	// TransitionState 状态为 from 时迁移到 to, 否则返回 responses.ErrStateConflict
	TransitionState(ctx context.Context, id int64, from, to string) error
}

// ChartValidationError sidecar 校验不通过
type ChartValidationError struct {
	Errors []string
}

func (e *ChartValidationError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		lines = append(lines, "SideCar Validation Error: "+err)
	}
	return strings.Join(lines, "\n")
}

// Target 一个订阅方及其仓库目录
type Target struct {
	Subscriber  *chart.Subscriber
	Directories []string
}

// Request 发布请求, Version 需预加载 Project / Services / Dependencies
type Request struct {
	Version *model.ProjectVersion
	Targets []Target
}

// Publisher 版本发布
type Publisher struct {
	versions  VersionStore
	client    sidecar.Client
	assembler *chart.Assembler
	repo      *blobstore.RepoClient
	notifier  notification.Notifier
	logger    *zap.Logger
}

// New 创建发布器, repo 为 nil 时不写客户端 values 文件
func New(versions VersionStore, client sidecar.Client, assembler *chart.Assembler, repo *blobstore.RepoClient, notifier notification.Notifier, logger *zap.Logger) *Publisher {
	return &Publisher{
		versions:  versions,
		client:    client,
		assembler: assembler,
		repo:      repo,
		notifier:  notifier,
		logger:    logger,
	}
}

type assembled struct {
	params      *chart.ChartParams
	directories []string
}

// Publish draft/failed -> building -> published
// 校验不通过返回 *ChartValidationError 且不会调用 PublishChart, 版本置为 failed
func (p *Publisher) Publish(ctx context.Context, req *Request) error {
	v := req.Version
	from := v.State
	if !constants.CanTransitVersion(from, constants.VersionStateBuilding) {
		return responses.ErrStateConflict
	}
	if err := p.versions.TransitionState(ctx, v.ID, from, constants.VersionStateBuilding); err != nil {
		return err
	}
	v.State = constants.VersionStateBuilding

	log := p.logger.With(zap.Int64("version_id", v.ID), zap.String("project", v.ProjectName()), zap.String("version", v.Version))
	log.Info("开始发布版本", zap.Int("targets", len(req.Targets)))

	if err := p.deliver(ctx, log, v, req.Targets); err != nil {
		p.fail(ctx, log, v, req.Targets, err)
		return err
	}

	if err := p.versions.TransitionState(ctx, v.ID, constants.VersionStateBuilding, constants.VersionStatePublished); err != nil {
		log.Error("更新版本为已发布失败", zap.Error(err))
		return err
	}
	v.State = constants.VersionStatePublished

	metrics.PublishTotal.WithLabelValues("published").Inc()
	log.Info("版本发布成功")
	p.notify(ctx, v, req.Targets, notification.NotifyPublishSuccess, "")
	return nil
}

// PublishTo 将已发布版本推送到新的目标, 不改变版本状态
func (p *Publisher) PublishTo(ctx context.Context, req *Request) error {
	v := req.Version
	if v.State != constants.VersionStatePublished {
		return responses.ErrStateConflict
	}
	log := p.logger.With(zap.Int64("version_id", v.ID), zap.String("version", v.Version))
	if err := p.deliver(ctx, log, v, req.Targets); err != nil {
		p.notify(ctx, v, req.Targets, failureType(err), err.Error())
		return err
	}
	p.notify(ctx, v, req.Targets, notification.NotifyPublishSuccess, "")
	return nil
}

// Generate 生成 chart 归档用于预览
func (p *Publisher) Generate(ctx context.Context, v *model.ProjectVersion, subscriber *chart.Subscriber) ([]byte, error) {
	params, err := p.assembler.Assemble(v, subscriber)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.GenerateChart(ctx, &sidecar.GenerateChartRequest{Chart: params})
	if err != nil {
		return nil, err
	}
	return resp.Chart, nil
}

// deliver 先校验全部 chart, 全部通过后逐个目录发布
func (p *Publisher) deliver(ctx context.Context, log *zap.Logger, v *model.ProjectVersion, targets []Target) error {
	charts, err := p.assembleAll(v, targets)
	if err != nil {
		log.Error("组装 chart 失败", zap.Error(err))
		return err
	}

	var validationErrors []string
	for _, c := range charts {
		resp, err := p.client.ValidateChart(ctx, &sidecar.ValidateChartRequest{Chart: c.params})
		if err != nil {
			return err
		}
		if !resp.Valid {
			validationErrors = append(validationErrors, resp.Errors...)
		}
	}
	if len(validationErrors) > 0 {
		validationErrors = lo.Uniq(validationErrors)
		for _, e := range validationErrors {
			log.Info("SideCar Validation Error: " + e)
		}
		return &ChartValidationError{Errors: validationErrors}
	}

	for _, c := range charts {
		for _, dir := range c.directories {
			start := time.Now()
			if _, err := p.client.PublishChart(ctx, &sidecar.PublishChartRequest{Chart: c.params, RepositoryDirectory: dir}); err != nil {
				log.Error("发布 chart 失败", zap.String("directory", dir), zap.Error(err))
				return err
			}
			if err := p.writeValues(ctx, dir, c.params); err != nil {
				log.Error("写入 values 文件失败", zap.String("directory", dir), zap.Error(err))
				return err
			}
			log.Info("chart 已发布", zap.String("directory", dir), zap.Duration("cost", time.Since(start)))
		}
	}
	return nil
}

// assembleAll 没有目标时仍组装一次用于校验
func (p *Publisher) assembleAll(v *model.ProjectVersion, targets []Target) ([]assembled, error) {
	if len(targets) == 0 {
		params, err := p.assembler.Assemble(v, nil)
		if err != nil {
			return nil, err
		}
		return []assembled{{params: params}}, nil
	}

	out := make([]assembled, 0, len(targets))
	for _, t := range targets {
		params, err := p.assembler.Assemble(v, t.Subscriber)
		if err != nil {
			return nil, err
		}
		out = append(out, assembled{params: params, directories: t.Directories})
	}
	return out, nil
}

func (p *Publisher) writeValues(ctx context.Context, dir string, params *chart.ChartParams) error {
	if p.repo == nil {
		return nil
	}
	data, err := chart.ValuesYAML(params)
	if err != nil {
		return err
	}
	return p.repo.PutValues(ctx, dir, params.Name, params.Version, data)
}

// fail building -> failed, 使用独立的 context 以免调用方超时后状态停留在 building
func (p *Publisher) fail(ctx context.Context, log *zap.Logger, v *model.ProjectVersion, targets []Target, cause error) {
	notifyType := failureType(cause)
	if notifyType == notification.NotifyPublishInvalid {
		metrics.PublishTotal.WithLabelValues("invalid").Inc()
	} else {
		metrics.PublishTotal.WithLabelValues("failed").Inc()
	}

	ctx = context.WithoutCancel(ctx)
	if err := p.versions.TransitionState(ctx, v.ID, constants.VersionStateBuilding, constants.VersionStateFailed); err != nil {
		log.Error("更新版本为失败状态失败", zap.Error(err))
	} else {
		v.State = constants.VersionStateFailed
	}
	p.notify(ctx, v, targets, notifyType, cause.Error())
}

func (p *Publisher) notify(ctx context.Context, v *model.ProjectVersion, targets []Target, notifyType notification.NotificationType, message string) {
	if p.notifier == nil {
		return
	}
	event := &notification.PublishEvent{
		VersionID:   v.ID,
		ProjectName: v.ProjectName(),
		Version:     v.Version,
		Directories: lo.FlatMap(targets, func(t Target, _ int) []string { return t.Directories }),
	}
	if err := p.notifier.SendPublishNotification(ctx, event, notifyType, message); err != nil {
		p.logger.Warn("发送发布通知失败", zap.Error(err))
	}
}

func failureType(err error) notification.NotificationType {
	var ve *ChartValidationError
	if errors.As(err, &ve) {
		return notification.NotifyPublishInvalid
	}
	return notification.NotifyPublishFailed
}
