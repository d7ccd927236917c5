package handler

import (
	"github.com/gin-gonic/gin"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

type DependencyHandler struct {
	dependencyService service.DependencyService
}

func NewDependencyHandler(dependencyService service.DependencyService) *DependencyHandler {
	return &DependencyHandler{
		dependencyService: dependencyService,
	}
}

// Catalog 可用的依赖类型
// @Summary 依赖目录
// @Tags Dependency
// @Produce json
// @Success 200 {object} responses.Response{data=[]dependency.Kind}
// @Router /api/v1/dependency/catalog [get]
func (h *DependencyHandler) Catalog(c *gin.Context) {
	responses.Success(c, h.dependencyService.Catalog())
}

// Create 添加依赖, 凭据由服务端生成
// @Summary 添加依赖
// @Tags Dependency
// @Accept json
// @Produce json
// @Param request body dto.CreateDependencyRequest true "创建依赖请求"
// @Success 200 {object} responses.Response{data=dto.DependencyResponse}
// @Router /api/v1/dependency [post]
func (h *DependencyHandler) Create(c *gin.Context) {
	var req dto.CreateDependencyRequest
	if !bindJSON(c, &req) {
		return
	}

	dep, err := h.dependencyService.Create(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dep)
}

// GetByID 依赖详情
// @Summary 依赖详情
// @Tags Dependency
// @Produce json
// @Param id query int64 true "依赖ID"
// @Success 200 {object} responses.Response{data=dto.DependencyResponse}
// @Router /api/v1/dependency [get]
func (h *DependencyHandler) GetByID(c *gin.Context) {
	var query dto.IDQuery
	if !bindQuery(c, &query) {
		return
	}

	dep, err := h.dependencyService.GetByID(query.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dep)
}

// List 版本下的依赖列表
// @Summary 依赖列表
// @Tags Dependency
// @Produce json
// @Param project_version_id query int64 true "版本ID"
// @Success 200 {object} responses.Response{data=[]dto.DependencyResponse}
// @Router /api/v1/dependencies [get]
func (h *DependencyHandler) List(c *gin.Context) {
	var query dto.VersionScopedQuery
	if !bindQuery(c, &query) {
		return
	}

	deps, err := h.dependencyService.ListByVersion(query.ProjectVersionID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, deps)
}

// Update 更新依赖
// @Summary 更新依赖
// @Tags Dependency
// @Accept json
// @Produce json
// @Param request body dto.UpdateDependencyRequest true "更新依赖请求"
// @Success 200 {object} responses.Response{data=dto.DependencyResponse}
// @Router /api/v1/dependency [put]
func (h *DependencyHandler) Update(c *gin.Context) {
	var req dto.UpdateDependencyRequest
	if !bindJSON(c, &req) {
		return
	}

	dep, err := h.dependencyService.Update(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dep)
}

// Delete 删除依赖
// @Summary 删除依赖
// @Tags Dependency
// @Produce json
// @Param id path int64 true "依赖ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/dependency/{id} [delete]
func (h *DependencyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "依赖")
	if !ok {
		return
	}

	if err := h.dependencyService.Delete(id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
