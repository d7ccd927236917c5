package service

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/publisher"
	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/jwt"
	"onprem-cd/internal/repository"
)

// TargetBuilder 由订阅方构建发布目标, 每个 helm 用户一个目录
type TargetBuilder struct {
	subscriberRepo repository.SubscriberRepository
	signer         *jwt.Signer
}

func (b *TargetBuilder) build(subscriber *model.Subscriber) (publisher.Target, error) {
	token, err := b.agentToken(subscriber)
	if err != nil {
		return publisher.Target{}, err
	}

	target := publisher.Target{
		Subscriber: &chart.Subscriber{
			Name:        subscriber.Name,
			FullAgent:   subscriber.FullAgent,
			BearerToken: token,
		},
	}
	if subscriber.HelmRepo != nil {
		target.Directories = lo.Map(subscriber.HelmRepo.HelmUsers, func(u model.HelmUser, _ int) string {
			return blobstore.Directory(subscriber.HelmRepo.Name, u.Name)
		})
	}
	return target, nil
}

func (b *TargetBuilder) buildAll(subscribers []*model.Subscriber) ([]publisher.Target, error) {
	targets := make([]publisher.Target, 0, len(subscribers))
	for _, s := range subscribers {
		t, err := b.build(s)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// agentToken 使用订阅方当前的 token id 签发, 没有时先生成
func (b *TargetBuilder) agentToken(subscriber *model.Subscriber) (string, error) {
	if subscriber.TokenID == nil {
		tokenID := uuid.NewString()
		if err := b.subscriberRepo.UpdateToken(subscriber.ID, tokenID); err != nil {
			return "", err
		}
		subscriber.TokenID = &tokenID
	}
	return b.signer.GenerateAgentToken(subscriber.ID, subscriber.UUID, *subscriber.TokenID)
}

// NewTargetBuilder 创建发布目标构建器
func NewTargetBuilder(subscriberRepo repository.SubscriberRepository, signer *jwt.Signer) *TargetBuilder {
	return &TargetBuilder{subscriberRepo: subscriberRepo, signer: signer}
}
