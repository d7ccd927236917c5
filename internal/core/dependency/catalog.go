// Package dependency 依赖目录: 支持的 helm 依赖类型及其配置到 chart values 的映射
package dependency

import (
	"errors"
	"fmt"
	"sort"

	"github.com/docker/go-units"
)

var (
	// ErrUnknownDependency 依赖目录中不存在该类型
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrUnknownOverrideKey 配置项没有对应的 override 映射
	ErrUnknownOverrideKey = errors.New("unknown override key")
	// ErrUnknownValueType 配置项没有声明值类型
	ErrUnknownValueType = errors.New("unknown value type")
	// ErrInvalidValue 配置值无法转换为声明的类型
	ErrInvalidValue = errors.New("invalid override value")
)

// Variant 依赖可选的 chart 版本
type Variant struct {
	Version             string `json:"version"`
	HumanVisibleVersion string `json:"human_visible_version"`
}

type transformFunc func(interface{}) (interface{}, error)

// Kind 依赖类型描述, 构建后不可变
type Kind struct {
	Name             string    `json:"name"`
	HumanVisibleName string    `json:"human_visible_name"`
	Description      string    `json:"description"`
	Icon             string    `json:"icon"`
	RepositoryURL    string    `json:"repository_url"`
	Variants         []Variant `json:"variants"`

	overrideMap map[string][]string
	valueTypes  map[string]ValueType
	transforms  map[string]transformFunc
	newConfig   func() Config
}

// HasVariant 是否支持该 chart 版本
func (k *Kind) HasVariant(version string) bool {
	for _, v := range k.Variants {
		if v.Version == version {
			return true
		}
	}
	return false
}

// OverridePaths 配置项映射到的 values 路径
func (k *Kind) OverridePaths(key string) ([]string, bool) {
	paths, ok := k.overrideMap[key]
	return paths, ok
}

var catalog = map[string]*Kind{
	"postgresql": {
		Name:             "postgresql",
		HumanVisibleName: "PostgreSQL",
		Description:      "A popular and powerful open-source relational database management system.",
		Icon:             "circle-stack",
		RepositoryURL:    "oci://registry-1.docker.io/bitnamicharts/postgresql",
		Variants: []Variant{
			{Version: "15.x.x", HumanVisibleVersion: "15"},
			{Version: "16.x.x", HumanVisibleVersion: "16"},
			{Version: "17.x.x", HumanVisibleVersion: "17"},
		},
		// https://artifacthub.io/packages/helm/bitnami/postgresql
		overrideMap: map[string][]string{
			"db_name":      {"auth.database"},
			"db_user":      {"auth.username"},
			"db_password":  {"auth.password"},
			"cpu_cores":    {"primary.resources.requests.cpu", "primary.resources.limits.cpu"},
			"memory_bytes": {"primary.resources.requests.memory", "primary.resources.limits.memory"},
			"disk_bytes":   {"primary.persistence.size"},
			"app_version":  {"image.tag"},
		},
		valueTypes: map[string]ValueType{
			"db_name":      ValueTypeString,
			"db_user":      ValueTypeString,
			"db_password":  ValueTypeString,
			"cpu_cores":    ValueTypeNumber,
			"memory_bytes": ValueTypeNumber,
			"disk_bytes":   ValueTypeString,
			"app_version":  ValueTypeString,
		},
		transforms: map[string]transformFunc{
			"disk_bytes": diskSize,
		},
		newConfig: func() Config { return &PostgresqlConfig{} },
	},
	"redis": {
		Name:             "redis",
		HumanVisibleName: "Redis",
		Description:      "An open-source, in-memory key-value store, useful for caching or as a lightweight database.",
		Icon:             "square-3-stack-3d",
		RepositoryURL:    "oci://registry-1.docker.io/bitnamicharts/redis",
		Variants: []Variant{
			{Version: "20.x.x", HumanVisibleVersion: "20"},
		},
		// https://artifacthub.io/packages/helm/bitnami/redis
		overrideMap: map[string][]string{
			"cpu_cores":         {"master.resources.requests.cpu", "master.resources.limits.cpu"},
			"memory_bytes":      {"master.resources.requests.memory", "master.resources.limits.memory"},
			"disk_bytes":        {"master.persistence.size"},
			"max_memory_policy": {"master.extraFlags"},
			"db_password":       {"auth.password"},
			"architecture":      {"architecture"},
			"app_version":       {},
		},
		valueTypes: map[string]ValueType{
			"cpu_cores":         ValueTypeNumber,
			"memory_bytes":      ValueTypeNumber,
			"disk_bytes":        ValueTypeString,
			"max_memory_policy": ValueTypeList,
			"db_password":       ValueTypeString,
			"architecture":      ValueTypeString,
			"app_version":       ValueTypeString,
		},
		transforms: map[string]transformFunc{
			"disk_bytes":        diskSize,
			"max_memory_policy": maxMemoryPolicyFlag,
		},
		newConfig: func() Config { return &RedisConfig{} },
	},
}

// Lookup 按名称查找依赖类型
func Lookup(name string) (*Kind, error) {
	kind, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDependency, name)
	}
	return kind, nil
}

// All 全部依赖类型, 按名称排序
func All() []*Kind {
	kinds := make([]*Kind, 0, len(catalog))
	for _, k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

// diskSize 字节数转换为 k8s 存储大小, 如 10737418240 -> "10Gi"
func diskSize(v interface{}) (interface{}, error) {
	bytes, err := toNumber(v)
	if err != nil {
		return nil, err
	}
	gi := int64(bytes) / units.GiB
	if gi < 1 {
		gi = 1
	}
	return fmt.Sprintf("%dGi", gi), nil
}

func maxMemoryPolicyFlag(v interface{}) (interface{}, error) {
	policy, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: max_memory_policy must be a string", ErrInvalidValue)
	}
	return []interface{}{"--maxmemory-policy " + policy}, nil
}
