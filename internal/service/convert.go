package service

import (
	"github.com/samber/lo"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
)

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerName:   p.OwnerName,
		CreatedAt:   dto.FormatTime(p.CreatedAt),
		UpdatedAt:   dto.FormatTime(p.UpdatedAt),
	}
}

func toVersionResponse(v *model.ProjectVersion) *dto.VersionResponse {
	resp := &dto.VersionResponse{
		ID:                v.ID,
		ProjectID:         v.ProjectID,
		ProjectName:       v.ProjectName(),
		Version:           v.Version,
		State:             v.State,
		Description:       v.Description,
		PreviousVersionID: v.PreviousVersionID,
		PublishedAt:       dto.FormatTimePtr(v.PublishedAt),
		CreatedAt:         dto.FormatTime(v.CreatedAt),
		UpdatedAt:         dto.FormatTime(v.UpdatedAt),
	}
	if len(v.Services) > 0 {
		resp.Services = lo.Map(v.Services, func(s model.ProjectService, _ int) *dto.ServiceResponse {
			return toServiceResponse(&s)
		})
	}
	if len(v.Dependencies) > 0 {
		resp.Dependencies = lo.Map(v.Dependencies, func(d model.Dependency, _ int) *dto.DependencyResponse {
			return toDependencyResponse(&d)
		})
	}
	return resp
}

func toServiceResponse(s *model.ProjectService) *dto.ServiceResponse {
	return &dto.ServiceResponse{
		ID:               s.ID,
		ProjectVersionID: s.ProjectVersionID,
		Name:             s.Name,
		Image:            s.Image,
		ImageUsername:    s.ImageUsername,
		HasImagePassword: s.ImagePassword != "",
		CPUCores:         s.CPUCores,
		MemoryBytes:      s.MemoryBytes,
		EnvironmentVariables: lo.Map(s.EnvironmentVars, func(v model.EnvironmentVariable, _ int) dto.EnvironmentVariable {
			return dto.EnvironmentVariable{Name: v.Name, Value: v.Value}
		}),
		Secrets:          append([]string{}, s.Secrets...),
		Ports:            append([]int{}, s.Ports...),
		PredeployCommand: s.PredeployCommand,
		IngressPort:      s.IngressPort,
		PVCName:          s.PVCName,
		PVCSizeBytes:     s.PVCSizeBytes,
		PVCMountPath:     s.PVCMountPath,
	}
}

func toDependencyResponse(d *model.Dependency) *dto.DependencyResponse {
	return &dto.DependencyResponse{
		ID:               d.ID,
		ProjectVersionID: d.ProjectVersionID,
		Name:             d.Name,
		ChartName:        d.ChartName,
		Version:          d.Version,
		RepoURL:          d.RepoURL,
		Configs:          d.Configs,
	}
}

func toSubscriberResponse(s *model.Subscriber) *dto.SubscriberResponse {
	resp := &dto.SubscriberResponse{
		ID:               s.ID,
		UUID:             s.UUID,
		ProjectID:        s.ProjectID,
		Name:             s.Name,
		FullAgent:        s.FullAgent,
		ProjectVersionID: s.ProjectVersionID,
		CreatedAt:        dto.FormatTime(s.CreatedAt),
		UpdatedAt:        dto.FormatTime(s.UpdatedAt),
	}
	if s.Project != nil {
		resp.ProjectName = s.Project.Name
	}
	if s.HelmRepo != nil {
		resp.HelmRepo = &dto.HelmRepoResponse{
			Name:  s.HelmRepo.Name,
			Users: lo.Map(s.HelmRepo.HelmUsers, func(u model.HelmUser, _ int) string { return u.Name }),
		}
	}
	return resp
}
