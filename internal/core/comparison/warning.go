package comparison

import "github.com/samber/lo"

// Rule 字段级告警规则, 任一变更状态命中 Conditions 即触发
type Rule struct {
	Field      string
	Message    string
	Conditions []Status
}

// ChangeRules 固定的告警规则表, 输出顺序与表顺序一致
var ChangeRules = []Rule{
	{
		Field:      "Port",
		Message:    "One or more ports have been modified or removed. This may impact the clients deployment if they rely on these ports being open.",
		Conditions: []Status{StatusModified, StatusRemoved},
	},
	{
		Field:      "Secret",
		Message:    "One or more secrets have been modified or added. The client will have manually update their secrets. Consider instead making this change in the application layer instead.",
		Conditions: []Status{StatusModified, StatusAdded},
	},
}

// Warnings 只检查 modified 的对象, 每条规则最多输出一次
func Warnings(comparisons []ObjectComparison) []string {
	changes := lo.FlatMap(
		lo.Filter(comparisons, func(c ObjectComparison, _ int) bool { return c.Status == StatusModified }),
		func(c ObjectComparison, _ int) []Change { return c.Changes },
	)

	warnings := []string{}
	for _, rule := range ChangeRules {
		hit := lo.ContainsBy(changes, func(c Change) bool {
			return c.Field == rule.Field && lo.Contains(rule.Conditions, c.Status())
		})
		if hit {
			warnings = append(warnings, rule.Message)
		}
	}
	return warnings
}
