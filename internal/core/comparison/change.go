// Package comparison 对比两个项目版本的服务与依赖, 并给出发布风险提示
package comparison

// ObjectType 被对比对象类型
type ObjectType string

const (
	ObjectTypeService    ObjectType = "service"
	ObjectTypeDependency ObjectType = "dependency"
)

// Status 对象或字段的变更状态
type Status string

const (
	StatusAdded    Status = "added"
	StatusRemoved  Status = "removed"
	StatusModified Status = "modified"
)

// Change 单个字段的变更, nil 表示该侧不存在
type Change struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
}

// Status 由新旧值推导变更状态
func (c Change) Status() Status {
	switch {
	case c.OldValue == nil && c.NewValue != nil:
		return StatusAdded
	case c.NewValue == nil && c.OldValue != nil:
		return StatusRemoved
	default:
		return StatusModified
	}
}

// ObjectComparison 单个服务或依赖的对比结果, added/removed 时 Changes 为空
type ObjectComparison struct {
	Name     string     `json:"name"`
	Type     ObjectType `json:"type"`
	Status   Status     `json:"status"`
	Changes  []Change   `json:"changes"`
	ObjectID int64      `json:"object_id"`
}

// VersionComparison 两个版本的对比结果
type VersionComparison struct {
	BaseVersion     string             `json:"base_version"`
	IncomingVersion string             `json:"incoming_version"`
	Comparisons     []ObjectComparison `json:"comparisons"`
	Warnings        []string           `json:"warnings"`
}

// HasChanges 是否存在任何差异
func (v *VersionComparison) HasChanges() bool {
	return len(v.Comparisons) > 0
}
