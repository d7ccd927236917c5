package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AgentInstanceTableName = "agent_instances"
	AgentEventLogTableName = "agent_event_logs"
	AgentActionTableName   = "agent_actions"
)

// AgentInstance 订阅方环境中运行的 agent 实例, (subscriber, name, lifecycle_id) 唯一
type AgentInstance struct {
	BaseModel
	SubscriberID    int64      `gorm:"not null;uniqueIndex:uk_agent_instance,priority:1" json:"subscriber_id"`
	Name            string     `gorm:"size:100;not null;uniqueIndex:uk_agent_instance,priority:2" json:"name"`
	LifecycleID     string     `gorm:"size:100;not null;uniqueIndex:uk_agent_instance,priority:3" json:"lifecycle_id"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at"`
}

func (AgentInstance) TableName() string {
	return AgentInstanceTableName
}

// Healthy 最近一次心跳在 timeout 之内
func (a *AgentInstance) Healthy(now time.Time, timeout time.Duration) bool {
	if a.LastHeartbeatAt == nil {
		return false
	}
	return now.Sub(*a.LastHeartbeatAt) < timeout
}

// AgentEventLog agent 事件日志, 只追加
type AgentEventLog struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentInstanceID int64             `gorm:"not null;index:idx_instance_created,priority:1" json:"agent_instance_id"`
	EventType       string            `gorm:"size:20;not null" json:"event_type"`
	SessionID       *string           `gorm:"size:100" json:"session_id"`
	Payload         datatypes.JSONMap `json:"payload"`
	CreatedAt       time.Time         `gorm:"not null;index:idx_instance_created,priority:2;index" json:"created_at"`
}

func (AgentEventLog) TableName() string {
	return AgentEventLogTableName
}

// AgentAction 下发给 agent 的待执行动作
type AgentAction struct {
	BaseModel
	SubscriberID int64             `gorm:"not null;index" json:"subscriber_id"`
	Type         string            `gorm:"size:50;not null" json:"type"`
	Status       string            `gorm:"size:20;not null;default:pending;index" json:"status"`
	Payload      datatypes.JSONMap `json:"payload"`
}

func (AgentAction) TableName() string {
	return AgentActionTableName
}
