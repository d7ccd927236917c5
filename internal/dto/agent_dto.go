package dto

import "onprem-cd/internal/core/heartbeat"

// AgentIdentity agent 身份, LifecycleID 每次 agent 进程启动时生成
type AgentIdentity struct {
	Name        string `json:"name" binding:"required,max=100"`
	LifecycleID string `json:"lifecycle_id" binding:"required,max=100"`
	VersionID   string `json:"version_id" binding:"omitempty,max=50"`
	SessionID   string `json:"session_id" binding:"omitempty,max=100"`
}

// HeartbeatRequest agent 心跳
type HeartbeatRequest struct {
	Identity AgentIdentity `json:"identity" binding:"required"`
}

// HeartbeatResponse 心跳响应
type HeartbeatResponse struct{}

// AgentAction 下发给 agent 的动作
type AgentAction struct {
	ID               int64  `json:"id"`
	Type             string `json:"type"`
	ProjectVersionID int64  `json:"project_version_id,omitempty"`
	ChartFile        string `json:"chart_file,omitempty"`
	Chart            []byte `json:"chart,omitempty"`
}

// ApplyResponse 没有待执行动作时 Action 为 null
type ApplyResponse struct {
	Action *AgentAction `json:"action"`
}

// AgentInstanceResponse agent 实例
type AgentInstanceResponse struct {
	ID              int64                 `json:"id"`
	Name            string                `json:"name"`
	LifecycleID     string                `json:"lifecycle_id"`
	Healthy         bool                  `json:"healthy"`
	LastHeartbeatAt *string               `json:"last_heartbeat_at"`
	Days            []heartbeat.DayStatus `json:"days,omitempty"`
}

// SubscriberStatusResponse 订阅方 agent 健康状况
type SubscriberStatusResponse struct {
	SubscriberID     int64                    `json:"subscriber_id"`
	CurrentStatus    heartbeat.Status         `json:"current_status"`
	UptimePercentage float64                  `json:"uptime_percentage"`
	Days             []heartbeat.DayStatus    `json:"days"`
	Instances        []*AgentInstanceResponse `json:"instances"`
}
