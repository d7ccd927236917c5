package handler

import (
	"github.com/gin-gonic/gin"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

// ServiceHandler 版本内的应用服务
type ServiceHandler struct {
	workloadService service.WorkloadService
}

func NewServiceHandler(workloadService service.WorkloadService) *ServiceHandler {
	return &ServiceHandler{
		workloadService: workloadService,
	}
}

// Create 添加服务
// @Summary 添加服务
// @Tags Service
// @Accept json
// @Produce json
// @Param request body dto.CreateServiceRequest true "创建服务请求"
// @Success 200 {object} responses.Response{data=dto.ServiceResponse}
// @Router /api/v1/service [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	var req dto.CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.workloadService.Create(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, svc)
}

// GetByID 服务详情
// @Summary 服务详情
// @Tags Service
// @Produce json
// @Param id query int64 true "服务ID"
// @Success 200 {object} responses.Response{data=dto.ServiceResponse}
// @Router /api/v1/service [get]
func (h *ServiceHandler) GetByID(c *gin.Context) {
	var query dto.IDQuery
	if !bindQuery(c, &query) {
		return
	}

	svc, err := h.workloadService.GetByID(query.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, svc)
}

// List 版本下的服务列表
// @Summary 服务列表
// @Tags Service
// @Produce json
// @Param project_version_id query int64 true "版本ID"
// @Success 200 {object} responses.Response{data=[]dto.ServiceResponse}
// @Router /api/v1/services [get]
func (h *ServiceHandler) List(c *gin.Context) {
	var query dto.VersionScopedQuery
	if !bindQuery(c, &query) {
		return
	}

	services, err := h.workloadService.ListByVersion(query.ProjectVersionID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, services)
}

// Update 更新服务
// @Summary 更新服务
// @Tags Service
// @Accept json
// @Produce json
// @Param request body dto.UpdateServiceRequest true "更新服务请求"
// @Success 200 {object} responses.Response{data=dto.ServiceResponse}
// @Router /api/v1/service [put]
func (h *ServiceHandler) Update(c *gin.Context) {
	var req dto.UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.workloadService.Update(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, svc)
}

// Delete 删除服务
// @Summary 删除服务
// @Tags Service
// @Produce json
// @Param id path int64 true "服务ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/service/{id} [delete]
func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "服务")
	if !ok {
		return
	}

	if err := h.workloadService.Delete(id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}
