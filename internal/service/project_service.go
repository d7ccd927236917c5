package service

import (
	"fmt"
	"regexp"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/model"
	"onprem-cd/internal/repository"
	pkgErrors "onprem-cd/pkg/responses"
)

// chartNamePattern 项目名会作为 chart 名、helm release 名和仓库目录前缀
var chartNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

type ProjectService interface {
	Create(req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetByID(id int64) (*dto.ProjectResponse, error)
	List(query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error)
	ListAll() ([]*dto.ProjectSimpleResponse, error)
	Update(req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	// Delete 项目下没有版本与订阅方时才能删除
	Delete(id int64) error
}

type projectService struct {
	repo repository.ProjectRepository
}

func NewProjectService(repo repository.ProjectRepository) ProjectService {
	return &projectService{repo: repo}
}

func (s *projectService) Create(req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if !chartNamePattern.MatchString(req.Name) {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "项目名只能包含小写字母、数字和中划线, 且以字母开头")
	}
	if existing, _ := s.repo.FindByName(req.Name); existing != nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, fmt.Sprintf("项目 %s 已存在", req.Name))
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerName:   req.OwnerName,
	}
	if err := s.repo.Create(project); err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}

func (s *projectService) GetByID(id int64) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	usage, err := s.repo.Usage(id)
	if err != nil {
		return nil, err
	}

	resp := toProjectResponse(project)
	resp.ProjectUsage = &dto.ProjectUsage{
		VersionCount:    usage.VersionCount,
		SubscriberCount: usage.SubscriberCount,
		LatestPublished: usage.LatestPublished,
	}
	return resp, nil
}

func (s *projectService) List(query *dto.ProjectListQuery) ([]*dto.ProjectResponse, int64, error) {
	projects, total, err := s.repo.List(query.GetPage(), query.GetPageSize(), query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.ProjectResponse, len(projects))
	for i, project := range projects {
		items[i] = toProjectResponse(project)
	}
	return items, total, nil
}

func (s *projectService) ListAll() ([]*dto.ProjectSimpleResponse, error) {
	projects, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ProjectSimpleResponse, len(projects))
	for i, project := range projects {
		items[i] = &dto.ProjectSimpleResponse{ID: project.ID, Name: project.Name}
	}
	return items, nil
}

func (s *projectService) Update(req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.repo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		project.Description = req.Description
	}
	if req.OwnerName != nil {
		project.OwnerName = req.OwnerName
	}

	if err := s.repo.Update(project); err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}

func (s *projectService) Delete(id int64) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return err
	}

	usage, err := s.repo.Usage(id)
	if err != nil {
		return err
	}
	if usage.VersionCount > 0 || usage.SubscriberCount > 0 {
		return pkgErrors.New(pkgErrors.CodeConflict, fmt.Sprintf(
			"项目下存在 %d 个版本和 %d 个订阅方, 不能删除", usage.VersionCount, usage.SubscriberCount))
	}
	return s.repo.Delete(id)
}
