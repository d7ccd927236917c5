package handler

import (
	"github.com/gin-gonic/gin"

	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

type SubscriberHandler struct {
	subscriberService service.SubscriberService
	agentService      service.AgentService
}

func NewSubscriberHandler(subscriberService service.SubscriberService, agentService service.AgentService) *SubscriberHandler {
	return &SubscriberHandler{
		subscriberService: subscriberService,
		agentService:      agentService,
	}
}

// Create 创建订阅方
// @Summary 创建订阅方
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.CreateSubscriberRequest true "创建订阅方请求"
// @Success 200 {object} responses.Response{data=dto.SubscriberResponse}
// @Router /api/v1/subscriber [post]
func (h *SubscriberHandler) Create(c *gin.Context) {
	var req dto.CreateSubscriberRequest
	if !bindJSON(c, &req) {
		return
	}

	subscriber, err := h.subscriberService.Create(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, subscriber)
}

// GetByID 订阅方详情
// @Summary 订阅方详情
// @Tags Subscriber
// @Produce json
// @Param id query int64 true "订阅方ID"
// @Success 200 {object} responses.Response{data=dto.SubscriberResponse}
// @Router /api/v1/subscriber [get]
func (h *SubscriberHandler) GetByID(c *gin.Context) {
	var req dto.GetSubscriberRequest
	if !bindQuery(c, &req) {
		return
	}

	subscriber, err := h.subscriberService.GetByID(req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, subscriber)
}

// List 项目的订阅方列表
// @Summary 订阅方列表
// @Tags Subscriber
// @Produce json
// @Param project_id query int64 true "项目ID"
// @Success 200 {object} responses.Response{data=[]dto.SubscriberResponse}
// @Router /api/v1/subscribers [get]
func (h *SubscriberHandler) List(c *gin.Context) {
	var query dto.SubscriberListQuery
	if !bindQuery(c, &query) {
		return
	}

	subscribers, err := h.subscriberService.List(query.ProjectID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, subscribers)
}

// Update 更新订阅方
// @Summary 更新订阅方
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.UpdateSubscriberRequest true "更新订阅方请求"
// @Success 200 {object} responses.Response{data=dto.SubscriberResponse}
// @Router /api/v1/subscriber [put]
func (h *SubscriberHandler) Update(c *gin.Context) {
	var req dto.UpdateSubscriberRequest
	if !bindJSON(c, &req) {
		return
	}

	subscriber, err := h.subscriberService.Update(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, subscriber)
}

// Delete 删除订阅方
// @Summary 删除订阅方
// @Tags Subscriber
// @Produce json
// @Param id path int64 true "订阅方ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/subscriber/{id} [delete]
func (h *SubscriberHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "订阅方")
	if !ok {
		return
	}

	if err := h.subscriberService.Delete(id); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}

// IssueToken 重新签发 agent token, 旧 token 立即失效
// @Summary 签发 agent token
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.IDRequest true "订阅方ID"
// @Success 200 {object} responses.Response{data=dto.AgentTokenResponse}
// @Router /api/v1/subscriber/token [post]
func (h *SubscriberHandler) IssueToken(c *gin.Context) {
	var req dto.IDRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.subscriberService.IssueToken(req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, token)
}

// CreateHelmUser 创建 helm 仓库用户, 密码仅返回一次
// @Summary 创建 helm 仓库用户
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.CreateHelmUserRequest true "创建用户请求"
// @Success 200 {object} responses.Response{data=dto.HelmUserResponse}
// @Router /api/v1/subscriber/helm_user [post]
func (h *SubscriberHandler) CreateHelmUser(c *gin.Context) {
	var req dto.CreateHelmUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.subscriberService.CreateHelmUser(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, user)
}

// DeleteHelmUser 删除 helm 仓库用户
// @Summary 删除 helm 仓库用户
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.DeleteHelmUserRequest true "删除用户请求"
// @Success 200 {object} responses.Response
// @Router /api/v1/subscriber/helm_user/delete [post]
func (h *SubscriberHandler) DeleteHelmUser(c *gin.Context) {
	var req dto.DeleteHelmUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.subscriberService.DeleteHelmUser(&req); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}

// Deploy 将已发布版本推送给订阅方
// @Summary 部署版本到订阅方
// @Tags Subscriber
// @Accept json
// @Produce json
// @Param request body dto.DeploySubscriberRequest true "部署请求"
// @Success 200 {object} responses.Response{data=dto.SubscriberResponse}
// @Router /api/v1/subscriber/deploy [post]
func (h *SubscriberHandler) Deploy(c *gin.Context) {
	var req dto.DeploySubscriberRequest
	if !bindJSON(c, &req) {
		return
	}

	subscriber, err := h.subscriberService.Deploy(c.Request.Context(), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, subscriber)
}

// Status 订阅方在线状态与按天可用率
// @Summary 订阅方状态
// @Tags Subscriber
// @Produce json
// @Param id query int64 true "订阅方ID"
// @Success 200 {object} responses.Response{data=dto.SubscriberStatusResponse}
// @Router /api/v1/subscriber/status [get]
func (h *SubscriberHandler) Status(c *gin.Context) {
	var req dto.GetSubscriberRequest
	if !bindQuery(c, &req) {
		return
	}

	status, err := h.agentService.Status(req.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, status)
}
