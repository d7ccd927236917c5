// Package chart 将项目版本组装为 sidecar 的 chart 描述
package chart

import (
	"onprem-cd/internal/core/dependency"
	"onprem-cd/internal/core/dockerimage"
)

// ImagePullPolicy 镜像拉取策略
type ImagePullPolicy string

const (
	PullPolicyIfNotPresent ImagePullPolicy = "IMAGE_PULL_POLICY_IF_NOT_PRESENT"
	PullPolicyAlways       ImagePullPolicy = "IMAGE_PULL_POLICY_ALWAYS"
)

// IngressPreference ingress 暴露偏好
type IngressPreference string

const (
	IngressPreferInternal IngressPreference = "PREFER_INTERNAL"
	IngressPreferExternal IngressPreference = "PREFER_EXTERNAL"
)

// ChartParams chart 描述
type ChartParams struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Services     []*ServiceParams    `json:"services"`
	Dependencies []*DependencyParams `json:"dependencies"`
}

// ServiceParams 单个服务
type ServiceParams struct {
	Name                   string                         `json:"name"`
	ReplicaCount           int32                          `json:"replica_count"`
	Image                  *Image                         `json:"image"`
	Resources              *Resources                     `json:"resources"`
	EnvironmentConfig      *EnvironmentConfig             `json:"environment_config"`
	Endpoints              []*Endpoint                    `json:"endpoints"`
	InitConfig             *InitConfig                    `json:"init_config,omitempty"`
	PersistentVolumeClaims []*PersistentVolumeClaimParams `json:"persistent_volume_claims,omitempty"`
	IngressConfig          *IngressParams                 `json:"ingress_config,omitempty"`
}

// Image 镜像
type Image struct {
	Name         string                   `json:"name"`
	Tag          string                   `json:"tag"`
	Credential   *ImageCredentials        `json:"credential,omitempty"`
	PullPolicy   ImagePullPolicy          `json:"pull_policy"`
	RegistryType dockerimage.RegistryType `json:"registry_type"`
}

// ImageCredentials 私有镜像凭据
type ImageCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Resources 资源, request 与 limit 相同
type Resources struct {
	CPUCoresRequested    float64 `json:"cpu_cores_requested"`
	CPUCoresLimit        float64 `json:"cpu_cores_limit"`
	MemoryBytesRequested int64   `json:"memory_bytes_requested"`
	MemoryBytesLimit     int64   `json:"memory_bytes_limit"`
}

// EnvironmentConfig 环境变量与 secret
type EnvironmentConfig struct {
	EnvironmentVariables         []*EnvironmentVariable `json:"environment_variables"`
	Secrets                      []*Secret              `json:"secrets"`
	MetaEnvironmentFieldsEnabled bool                   `json:"meta_environment_fields_enabled,omitempty"`
}

// EnvironmentVariable 环境变量
type EnvironmentVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Secret 客户自行创建的 k8s secret, Name 为 DNS-1123 名称
type Secret struct {
	Name           string `json:"name"`
	EnvironmentKey string `json:"environment_key"`
}

// Endpoint 服务端口
type Endpoint struct {
	Port int32 `json:"port"`
}

// InitConfig 部署前执行的命令
type InitConfig struct {
	InitCommands []string `json:"init_commands"`
}

// PersistentVolumeClaimParams 持久卷
type PersistentVolumeClaimParams struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"path"`
}

// IngressParams ingress
type IngressParams struct {
	Port       int32             `json:"port"`
	Preference IngressPreference `json:"preference"`
}

// DependencyParams 依赖 chart, Name 为目录中的 chart 名, ValuesAlias 为用户起的依赖名
type DependencyParams struct {
	Name          string                `json:"name"`
	ValuesAlias   string                `json:"values_alias"`
	Version       string                `json:"version"`
	RepositoryURL string                `json:"repository_url"`
	Overrides     []dependency.Override `json:"overrides"`
}
