package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"onprem-cd/internal/model"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

// HeartbeatRecord 一次心跳
type HeartbeatRecord struct {
	SubscriberID int64
	Name         string
	LifecycleID  string
	SessionID    string
	Payload      map[string]interface{}
	At           time.Time
}

type AgentRepository interface {
	// RecordHeartbeat upsert 实例, 追加心跳事件并更新 last_heartbeat_at
	RecordHeartbeat(ctx context.Context, rec *HeartbeatRecord) (*model.AgentInstance, error)
	ListInstances(subscriberID int64) ([]*model.AgentInstance, error)
	// HeartbeatTimes 实例在 since 之后的心跳时间, 升序
	HeartbeatTimes(instanceID int64, since time.Time) ([]time.Time, error)
	// FirstHeartbeat 实例最早一次心跳, 无心跳时返回 nil
	FirstHeartbeat(instanceID int64) (*time.Time, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)

	CreateAction(action *model.AgentAction) error
	// ClaimPendingAction 取出最早的待执行动作并标记为已完成, 没有时返回 nil
	ClaimPendingAction(ctx context.Context, subscriberID int64) (*model.AgentAction, error)
}

type agentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) RecordHeartbeat(ctx context.Context, rec *HeartbeatRecord) (*model.AgentInstance, error) {
	at := rec.At.UTC()
	instance := &model.AgentInstance{
		SubscriberID:    rec.SubscriberID,
		Name:            rec.Name,
		LifecycleID:     rec.LifecycleID,
		LastHeartbeatAt: &at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "name"}, {Name: "lifecycle_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_heartbeat_at", "updated_at"}),
		}).Create(instance).Error
		if err != nil {
			return err
		}

		// 冲突更新时部分驱动回填的主键不可靠, 重新查询
		var stored model.AgentInstance
		if err := tx.Where("subscriber_id = ? AND name = ? AND lifecycle_id = ?",
			rec.SubscriberID, rec.Name, rec.LifecycleID).First(&stored).Error; err != nil {
			return err
		}
		*instance = stored

		event := &model.AgentEventLog{
			AgentInstanceID: instance.ID,
			EventType:       constants.AgentEventHeartbeat,
			Payload:         datatypes.JSONMap(rec.Payload),
			CreatedAt:       at,
		}
		if rec.SessionID != "" {
			sessionID := rec.SessionID
			event.SessionID = &sessionID
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "记录心跳失败", err)
	}
	return instance, nil
}

func (r *agentRepository) ListInstances(subscriberID int64) ([]*model.AgentInstance, error) {
	var instances []*model.AgentInstance
	if err := r.db.Where("subscriber_id = ?", subscriberID).Order("name ASC, id ASC").Find(&instances).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询 agent 实例失败", err)
	}
	return instances, nil
}

func (r *agentRepository) HeartbeatTimes(instanceID int64, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Model(&model.AgentEventLog{}).
		Where("agent_instance_id = ? AND event_type = ? AND created_at >= ?", instanceID, constants.AgentEventHeartbeat, since.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询心跳失败", err)
	}
	return times, nil
}

func (r *agentRepository) FirstHeartbeat(instanceID int64) (*time.Time, error) {
	var event model.AgentEventLog
	err := r.db.Where("agent_instance_id = ? AND event_type = ?", instanceID, constants.AgentEventHeartbeat).
		Order("created_at ASC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询心跳失败", err)
	}
	return &event.CreatedAt, nil
}

func (r *agentRepository) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&model.AgentEventLog{})
	if result.Error != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清理心跳事件失败", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *agentRepository) CreateAction(action *model.AgentAction) error {
	if err := r.db.Create(action).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建 agent 动作失败", err)
	}
	return nil
}

func (r *agentRepository) ClaimPendingAction(ctx context.Context, subscriberID int64) (*model.AgentAction, error) {
	var claimed *model.AgentAction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var action model.AgentAction
		err := tx.Where("subscriber_id = ? AND status = ?", subscriberID, constants.AgentActionStatusPending).
			Order("created_at ASC, id ASC").
			First(&action).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Model(&model.AgentAction{}).
			Where("id = ? AND status = ?", action.ID, constants.AgentActionStatusPending).
			Update("status", constants.AgentActionStatusCompleted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 已被并发请求取走
			return nil
		}
		action.Status = constants.AgentActionStatusCompleted
		claimed = &action
		return nil
	})
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "获取 agent 动作失败", err)
	}
	return claimed, nil
}
