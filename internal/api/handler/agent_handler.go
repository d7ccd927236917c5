package handler

import (
	"github.com/gin-gonic/gin"

	"onprem-cd/internal/api/middleware"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/responses"
)

// AgentHandler 集群内 agent 调用的接口
type AgentHandler struct {
	agentService service.AgentService
}

func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{
		agentService: agentService,
	}
}

// Heartbeat 上报心跳
// @Summary agent 心跳
// @Tags Agent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.HeartbeatRequest true "心跳请求"
// @Success 200 {object} responses.Response{data=dto.HeartbeatResponse}
// @Router /api/v1/agent/heartbeat [post]
func (h *AgentHandler) Heartbeat(c *gin.Context) {
	var req dto.HeartbeatRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.agentService.Heartbeat(c.Request.Context(), middleware.CurrentSubscriber(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Apply 领取待执行的动作
// @Summary agent 领取动作
// @Tags Agent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} responses.Response{data=dto.ApplyResponse}
// @Router /api/v1/agent/apply [post]
func (h *AgentHandler) Apply(c *gin.Context) {
	resp, err := h.agentService.Apply(c.Request.Context(), middleware.CurrentSubscriber(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}
