package chart

import (
	"fmt"
	"strconv"
	"strings"

	"onprem-cd/internal/core/dependency"
	"onprem-cd/internal/core/dockerimage"
	"onprem-cd/internal/model"
)

const defaultImageTag = "latest"

// Subscriber chart 的接收方, 为 nil 时只包含版本自身的服务
type Subscriber struct {
	Name        string
	FullAgent   bool
	BearerToken string
}

// Assembler 由版本快照组装 ChartParams, 版本需预加载 Project / Services / Dependencies
type Assembler struct {
	agent AgentTemplate
}

// NewAssembler 创建组装器
func NewAssembler(agent AgentTemplate) *Assembler {
	return &Assembler{agent: agent}
}

// Assemble 组装 chart; full_agent 的订阅方额外追加 agent 服务
func (a *Assembler) Assemble(version *model.ProjectVersion, subscriber *Subscriber) (*ChartParams, error) {
	params := &ChartParams{
		Name:         version.ProjectName(),
		Version:      version.Version,
		Services:     make([]*ServiceParams, 0, len(version.Services)+1),
		Dependencies: make([]*DependencyParams, 0, len(version.Dependencies)),
	}

	for i := range version.Services {
		svc, err := serviceParams(&version.Services[i])
		if err != nil {
			return nil, err
		}
		params.Services = append(params.Services, svc)
	}

	if subscriber != nil && subscriber.FullAgent {
		params.Services = append(params.Services, a.agent.ServiceParams(version.ID, subscriber))
	}

	for i := range version.Dependencies {
		dep, err := dependencyParams(&version.Dependencies[i])
		if err != nil {
			return nil, err
		}
		params.Dependencies = append(params.Dependencies, dep)
	}
	return params, nil
}

func serviceParams(s *model.ProjectService) (*ServiceParams, error) {
	img, err := dockerimage.Parse(s.Image)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", s.Name, err)
	}

	env, err := environmentConfig(s)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", s.Name, err)
	}

	params := &ServiceParams{
		Name:         s.Name,
		ReplicaCount: 1,
		Image: &Image{
			Name:         img.String(false),
			Tag:          img.Tag,
			Credential:   imageCredential(s),
			PullPolicy:   PullPolicyIfNotPresent,
			RegistryType: img.RegistryType(),
		},
		Resources: &Resources{
			CPUCoresRequested:    s.CPUCores,
			CPUCoresLimit:        s.CPUCores,
			MemoryBytesRequested: s.MemoryBytes,
			MemoryBytesLimit:     s.MemoryBytes,
		},
		EnvironmentConfig: env,
		Endpoints:         make([]*Endpoint, 0, len(s.Ports)),
	}
	if params.Image.Tag == "" {
		params.Image.Tag = defaultImageTag
	}

	for _, port := range s.Ports {
		params.Endpoints = append(params.Endpoints, &Endpoint{Port: int32(port)})
	}

	if s.PredeployCommand != nil && strings.TrimSpace(*s.PredeployCommand) != "" {
		params.InitConfig = &InitConfig{InitCommands: []string{*s.PredeployCommand}}
	}

	if s.PVCSizeBytes != nil {
		params.PersistentVolumeClaims = []*PersistentVolumeClaimParams{{
			Name:      deref(s.PVCName),
			SizeBytes: *s.PVCSizeBytes,
			Path:      deref(s.PVCMountPath),
		}}
	}

	if s.IngressPort != nil {
		params.IngressConfig = &IngressParams{
			Port:       int32(*s.IngressPort),
			Preference: IngressPreferInternal,
		}
	}
	return params, nil
}

// imageCredential 用户名与密码都填写时才下发凭据
func imageCredential(s *model.ProjectService) *ImageCredentials {
	if strings.TrimSpace(s.ImageUsername) == "" || strings.TrimSpace(s.ImagePassword) == "" {
		return nil
	}
	return &ImageCredentials{Username: s.ImageUsername, Password: s.ImagePassword}
}

func environmentConfig(s *model.ProjectService) (*EnvironmentConfig, error) {
	cfg := &EnvironmentConfig{
		EnvironmentVariables: make([]*EnvironmentVariable, 0, len(s.EnvironmentVars)),
		Secrets:              make([]*Secret, 0, len(s.Secrets)),
	}
	for _, v := range s.EnvironmentVars {
		cfg.EnvironmentVariables = append(cfg.EnvironmentVariables, &EnvironmentVariable{Name: v.Name, Value: v.Value})
	}
	for _, key := range s.Secrets {
		name, err := SecretName(key)
		if err != nil {
			return nil, err
		}
		cfg.Secrets = append(cfg.Secrets, &Secret{Name: name, EnvironmentKey: key})
	}
	return cfg, nil
}

func dependencyParams(d *model.Dependency) (*DependencyParams, error) {
	overrides, err := dependency.BuildOverrides(d.ChartName, d.Configs)
	if err != nil {
		return nil, fmt.Errorf("dependency %s: %w", d.Name, err)
	}
	return &DependencyParams{
		Name:          d.ChartName,
		ValuesAlias:   d.Name,
		Version:       d.Version,
		RepositoryURL: d.RepoURL,
		Overrides:     overrides,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
