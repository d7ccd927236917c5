package comparison

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/docker/go-units"
	"github.com/samber/lo"

	"onprem-cd/internal/model"
)

// Named 可按名称对比的对象
type Named interface {
	GetID() int64
	GetName() string
}

// Compare 对比 base 与 incoming 两个版本, 版本需预加载 Services 与 Dependencies
func Compare(base, incoming *model.ProjectVersion) *VersionComparison {
	comparisons := compareObjects(base.Services, incoming.Services, ObjectTypeService, compareService)
	comparisons = append(comparisons,
		compareObjects(base.Dependencies, incoming.Dependencies, ObjectTypeDependency, compareDependency)...)

	return &VersionComparison{
		BaseVersion:     base.Version,
		IncomingVersion: incoming.Version,
		Comparisons:     comparisons,
		Warnings:        Warnings(comparisons),
	}
}

func compareObjects[T Named](base, incoming []T, typ ObjectType, diff func(base, incoming T) []Change) []ObjectComparison {
	baseByName := lo.KeyBy(base, func(o T) string { return o.GetName() })
	incomingByName := lo.KeyBy(incoming, func(o T) string { return o.GetName() })

	names := lo.Uniq(append(
		lo.Map(base, func(o T, _ int) string { return o.GetName() }),
		lo.Map(incoming, func(o T, _ int) string { return o.GetName() })...,
	))

	result := make([]ObjectComparison, 0, len(names))
	for _, name := range names {
		b, inBase := baseByName[name]
		in, inIncoming := incomingByName[name]

		cmp := ObjectComparison{Name: name, Type: typ, Status: StatusModified, Changes: []Change{}}
		switch {
		case !inBase:
			cmp.Status = StatusAdded
			cmp.ObjectID = in.GetID()
		case !inIncoming:
			cmp.Status = StatusRemoved
			cmp.ObjectID = b.GetID()
		default:
			cmp.ObjectID = in.GetID()
			cmp.Changes = diff(b, in)
			if len(cmp.Changes) == 0 {
				continue
			}
		}
		result = append(result, cmp)
	}
	return result
}

func compareService(base, incoming model.ProjectService) []Change {
	changes := simpleChanges([]simpleField{
		{"Image", base.Image, incoming.Image},
		{"CPU Cores", base.CPUCores, incoming.CPUCores},
		{"Predeploy Command", deref(base.PredeployCommand), deref(incoming.PredeployCommand)},
		{"Ingress Port", deref(base.IngressPort), deref(incoming.IngressPort)},
		{"Image Username", base.ImageUsername, incoming.ImageUsername},
		{"Image Password", base.ImagePassword, incoming.ImagePassword},
	})

	if base.MemoryBytes != incoming.MemoryBytes {
		changes = append(changes, Change{
			Field:    "Memory",
			OldValue: HumanizeBytes(base.MemoryBytes),
			NewValue: HumanizeBytes(incoming.MemoryBytes),
		})
	}
	changes = append(changes, keyedChanges("Environment Variable",
		envMap(base.EnvironmentVars), envMap(incoming.EnvironmentVars),
		lo.Uniq(append(base.EnvironmentVars.Names(), incoming.EnvironmentVars.Names()...)))...)
	changes = append(changes, setChanges("Secret", []string(base.Secrets), []string(incoming.Secrets))...)
	changes = append(changes, setChanges("Port", []int(base.Ports), []int(incoming.Ports))...)
	return changes
}

func compareDependency(base, incoming model.Dependency) []Change {
	changes := simpleChanges([]simpleField{
		{"Version", base.Version, incoming.Version},
		{"Repo URL", base.RepoURL, incoming.RepoURL},
	})

	keys := lo.Uniq(append(lo.Keys(map[string]interface{}(base.Configs)), lo.Keys(map[string]interface{}(incoming.Configs))...))
	sort.Strings(keys)
	for _, key := range keys {
		oldValue, newValue := base.Configs[key], incoming.Configs[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes = append(changes, Change{Field: key, OldValue: oldValue, NewValue: newValue})
	}
	return changes
}

type simpleField struct {
	label    string
	oldValue interface{}
	newValue interface{}
}

func simpleChanges(fields []simpleField) []Change {
	var changes []Change
	for _, f := range fields {
		if f.oldValue == f.newValue {
			continue
		}
		changes = append(changes, Change{Field: f.label, OldValue: f.oldValue, NewValue: f.newValue})
	}
	return changes
}

// keyedChanges 按 key 对比, 仅一侧存在时另一侧为 nil
func keyedChanges(label string, base, incoming map[string]string, keys []string) []Change {
	var changes []Change
	for _, key := range keys {
		oldValue, inBase := base[key]
		newValue, inIncoming := incoming[key]
		if inBase == inIncoming && oldValue == newValue {
			continue
		}
		changes = append(changes, Change{
			Field:    fmt.Sprintf("%s %s", label, key),
			OldValue: optional(oldValue, inBase),
			NewValue: optional(newValue, inIncoming),
		})
	}
	return changes
}

// setChanges 集合差集, 两侧都存在的值不算变更
func setChanges[T comparable](label string, base, incoming []T) []Change {
	var changes []Change
	for _, v := range lo.Uniq(append(append([]T{}, base...), incoming...)) {
		inBase, inIncoming := lo.Contains(base, v), lo.Contains(incoming, v)
		if inBase && inIncoming {
			continue
		}
		changes = append(changes, Change{Field: label, OldValue: optional(v, inBase), NewValue: optional(v, inIncoming)})
	}
	return changes
}

func envMap(vars model.EnvVarList) map[string]string {
	return lo.SliceToMap(vars, func(v model.EnvironmentVariable) (string, string) { return v.Name, v.Value })
}

func optional[T any](v T, present bool) interface{} {
	if !present {
		return nil
	}
	return v
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// HumanizeBytes 1024 进制的可读大小, 保留一位小数, 如 512000000 -> "488.3 MB"
// 舍入后达到 1024 时进位到下一个单位, 1073741823 -> "1 GB"
func HumanizeBytes(b int64) string {
	base := float64(units.KiB)
	size, i := float64(b), 0
	for size >= base && i < len(byteUnits)-1 {
		size /= base
		i++
	}
	size = math.Round(size*10) / 10
	if size >= base && i < len(byteUnits)-1 {
		size /= base
		i++
	}
	return strconv.FormatFloat(size, 'f', -1, 64) + " " + byteUnits[i]
}
