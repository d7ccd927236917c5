package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

type VersionHandler struct {
	versionService service.VersionService
}

func NewVersionHandler(versionService service.VersionService) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
	}
}

// Create 创建版本, 可从已有版本复制
// @Summary 创建版本
// @Tags Version
// @Accept json
// @Produce json
// @Param request body dto.CreateVersionRequest true "创建版本请求"
// @Success 200 {object} responses.Response{data=dto.VersionResponse}
// @Router /api/v1/version [post]
func (h *VersionHandler) Create(c *gin.Context) {
	var req dto.CreateVersionRequest
	if !bindJSON(c, &req) {
		return
	}

	version, err := h.versionService.Create(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, version)
}

// GetByID 获取版本详情(含服务与依赖)
// @Summary 获取版本详情
// @Tags Version
// @Produce json
// @Param id query int64 true "版本ID"
// @Success 200 {object} responses.Response{data=dto.VersionResponse}
// @Router /api/v1/version [get]
func (h *VersionHandler) GetByID(c *gin.Context) {
	var req dto.GetVersionRequest
	if !bindQuery(c, &req) {
		return
	}

	version, err := h.versionService.GetByID(req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, version)
}

// List 项目的版本列表
// @Summary 版本列表
// @Tags Version
// @Produce json
// @Param project_id query int64 true "项目ID"
// @Success 200 {object} responses.Response{data=[]dto.VersionResponse}
// @Router /api/v1/versions [get]
func (h *VersionHandler) List(c *gin.Context) {
	var query dto.VersionListQuery
	if !bindQuery(c, &query) {
		return
	}

	versions, err := h.versionService.List(query.ProjectID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, versions)
}

// Update 更新版本描述
// @Summary 更新版本
// @Tags Version
// @Accept json
// @Produce json
// @Param request body dto.UpdateVersionRequest true "更新版本请求"
// @Success 200 {object} responses.Response{data=dto.VersionResponse}
// @Router /api/v1/version [put]
func (h *VersionHandler) Update(c *gin.Context) {
	var req dto.UpdateVersionRequest
	if !bindJSON(c, &req) {
		return
	}

	version, err := h.versionService.Update(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, version)
}

// Delete 删除草稿或失败的版本
// @Summary 删除版本
// @Tags Version
// @Produce json
// @Param id path int64 true "版本ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/version/{id} [delete]
func (h *VersionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "版本")
	if !ok {
		return
	}

	if err := h.versionService.Delete(id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}

// Compare 对比两个版本
// @Summary 版本对比
// @Tags Version
// @Produce json
// @Param base_id query int64 true "基准版本ID"
// @Param incoming_id query int64 true "目标版本ID"
// @Success 200 {object} responses.Response{data=comparison.VersionComparison}
// @Router /api/v1/version/compare [get]
func (h *VersionHandler) Compare(c *gin.Context) {
	var query dto.CompareVersionQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.versionService.Compare(&query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, result)
}

// Publish 校验并发布版本
// @Summary 发布版本
// @Tags Version
// @Accept json
// @Produce json
// @Param request body dto.IDRequest true "版本ID"
// @Success 200 {object} responses.Response{data=dto.PublishVersionResponse}
// @Router /api/v1/version/publish [post]
func (h *VersionHandler) Publish(c *gin.Context) {
	var req dto.IDRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.versionService.Publish(c.Request.Context(), req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Unpublish 撤回已发布的版本
// @Summary 撤回版本
// @Tags Version
// @Accept json
// @Produce json
// @Param request body dto.IDRequest true "版本ID"
// @Success 200 {object} responses.Response{data=dto.VersionResponse}
// @Router /api/v1/version/unpublish [post]
func (h *VersionHandler) Unpublish(c *gin.Context) {
	var req dto.IDRequest
	if !bindJSON(c, &req) {
		return
	}

	version, err := h.versionService.Unpublish(c.Request.Context(), req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, version)
}

// Preview 下载 chart 预览归档
// @Summary chart 预览
// @Tags Version
// @Produce application/gzip
// @Param id query int64 true "版本ID"
// @Param subscriber_id query int64 false "订阅方ID"
// @Success 200 {file} file
// @Router /api/v1/version/preview [get]
func (h *VersionHandler) Preview(c *gin.Context) {
	var query dto.PreviewVersionQuery
	if !bindQuery(c, &query) {
		return
	}

	archive, err := h.versionService.Preview(c.Request.Context(), &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="version-%d.tgz"`, query.ID))
	c.Data(200, "application/gzip", archive)
}

// ValuesPreview 渲染 values 预览
// @Summary values 预览
// @Tags Version
// @Produce json
// @Param id query int64 true "版本ID"
// @Param subscriber_id query int64 false "订阅方ID"
// @Success 200 {object} responses.Response{data=dto.ValuesPreviewResponse}
// @Router /api/v1/version/values [get]
func (h *VersionHandler) ValuesPreview(c *gin.Context) {
	var query dto.PreviewVersionQuery
	if !bindQuery(c, &query) {
		return
	}

	resp, err := h.versionService.ValuesPreview(&query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}
