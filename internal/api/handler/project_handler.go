package handler

import (
	"github.com/gin-gonic/gin"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 创建项目
// @Summary 创建项目
// @Tags Project
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "创建项目请求"
// @Success 200 {object} responses.Response{data=dto.ProjectResponse}
// @Router /api/v1/project [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// GetByID 获取项目详情
// @Summary 获取项目详情
// @Tags Project
// @Produce json
// @Param id query int64 true "项目ID"
// @Success 200 {object} responses.Response{data=dto.ProjectResponse}
// @Router /api/v1/project [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	var req dto.IDQuery
	if !bindQuery(c, &req) {
		return
	}

	project, err := h.projectService.GetByID(req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// List 获取项目列表
// @Summary 获取项目列表（无分页参数时返回所有项目，有分页参数时返回分页数据）
// @Tags Project
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "关键字搜索"
// @Success 200 {object} responses.Response{data=[]dto.ProjectSimpleResponse}
// @Success 200 {object} responses.Response{data=responses.PageData}
// @Router /api/v1/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var query dto.ProjectListQuery
	if !bindQuery(c, &query) {
		return
	}

	// 如果没有分页参数，返回所有项目简化列表（用于下拉选择）
	if query.Page == 0 && query.PageSize == 0 {
		projects, err := h.projectService.ListAll()
		if err != nil {
			responses.Error(c, err)
			return
		}
		responses.Success(c, projects)
		return
	}

	projects, total, err := h.projectService.List(&query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.PageSuccess(c, projects, total, query.GetPage(), query.GetPageSize())
}

// Update 更新项目
// @Summary 更新项目
// @Tags Project
// @Accept json
// @Produce json
// @Param request body dto.UpdateProjectRequest true "更新项目请求"
// @Success 200 {object} responses.Response{data=dto.ProjectResponse}
// @Router /api/v1/project [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, project)
}

// Delete 删除项目
// @Summary 删除项目
// @Tags Project
// @Produce json
// @Param id path int64 true "项目ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/project/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "项目")
	if !ok {
		return
	}

	if err := h.projectService.Delete(id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
