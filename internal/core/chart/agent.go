package chart

import (
	"onprem-cd/internal/core/dockerimage"
	"onprem-cd/internal/pkg/config"
)

// AgentTemplate 追加到 full_agent 订阅方 chart 中的 agent 服务
type AgentTemplate struct {
	Name           string
	Image          string
	Tag            string
	BackendAddress string
	CPUCores       float64
	MemoryBytes    int64
	DiskBytes      int64
	MountPath      string
}

// AgentTemplateFromConfig 从配置构建
func AgentTemplateFromConfig(cfg *config.AgentConfig) AgentTemplate {
	return AgentTemplate{
		Name:           cfg.Name,
		Image:          cfg.Image,
		Tag:            cfg.Tag,
		BackendAddress: cfg.BackendAddress,
		CPUCores:       float64(cfg.CPUCores),
		MemoryBytes:    cfg.MemoryBytes,
		DiskBytes:      cfg.DiskBytes,
		MountPath:      cfg.MountPath,
	}
}

// ServiceParams agent 服务描述, 订阅方名称与令牌缺失时使用占位值
func (t AgentTemplate) ServiceParams(versionID int64, subscriber *Subscriber) *ServiceParams {
	name, token := "unknown", "placeholder"
	if subscriber != nil && subscriber.Name != "" {
		name = subscriber.Name
	}
	if subscriber != nil && subscriber.BearerToken != "" {
		token = subscriber.BearerToken
	}

	return &ServiceParams{
		Name:         t.Name,
		ReplicaCount: 1,
		Image: &Image{
			Name:         t.Image,
			Tag:          t.Tag,
			PullPolicy:   PullPolicyAlways,
			RegistryType: registryTypeOf(t.Image),
		},
		Resources: &Resources{
			CPUCoresRequested:    t.CPUCores,
			CPUCoresLimit:        t.CPUCores,
			MemoryBytesRequested: t.MemoryBytes,
			MemoryBytesLimit:     t.MemoryBytes,
		},
		EnvironmentConfig: &EnvironmentConfig{
			EnvironmentVariables: []*EnvironmentVariable{
				{Name: "NAME", Value: name},
				{Name: "BEARER_TOKEN", Value: token},
				{Name: "BACKEND_ADDR", Value: t.BackendAddress},
				{Name: "PROJECT_VERSION_ID", Value: formatID(versionID)},
			},
			Secrets:                      []*Secret{},
			MetaEnvironmentFieldsEnabled: true,
		},
		Endpoints: []*Endpoint{},
		PersistentVolumeClaims: []*PersistentVolumeClaimParams{{
			Name:      "pvc-" + t.Name,
			SizeBytes: t.DiskBytes,
			Path:      t.MountPath,
		}},
	}
}

func registryTypeOf(image string) dockerimage.RegistryType {
	img, err := dockerimage.Parse(image)
	if err != nil {
		return dockerimage.RegistryTypeUnspecified
	}
	return img.RegistryType()
}
