package constants

// VersionState 项目版本状态
const (
	VersionStateDraft     = "draft"     // 草稿, 可编辑
	VersionStateBuilding  = "building"  // 已提交 sidecar 校验/发布中
	VersionStatePublished = "published" // 已发布
	VersionStateFailed    = "failed"    // 校验或发布失败
)

// versionTransitions 允许的状态迁移, published -> draft 为显式撤回
var versionTransitions = map[string][]string{
	VersionStateDraft:     {VersionStateBuilding},
	VersionStateFailed:    {VersionStateBuilding},
	VersionStateBuilding:  {VersionStatePublished, VersionStateFailed},
	VersionStatePublished: {VersionStateDraft},
}

// CanTransitVersion 判断版本状态迁移是否合法
func CanTransitVersion(from, to string) bool {
	for _, next := range versionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsVersionEditable 只有草稿与失败版本可修改服务和依赖
func IsVersionEditable(state string) bool {
	return state == VersionStateDraft || state == VersionStateFailed
}

// AgentActionType agent 待执行动作
const (
	AgentActionApplyVersion = "apply_version"
)

// AgentActionStatus agent 动作状态
const (
	AgentActionStatusPending   = "pending"
	AgentActionStatusCompleted = "completed"
)

// AgentEventType agent 事件类型
const (
	AgentEventHeartbeat = "heartbeat"
)
