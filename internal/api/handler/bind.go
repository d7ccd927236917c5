package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"onprem-cd/pkg/responses"
	"onprem-cd/pkg/utils"
)

// bindJSON 绑定请求体, 失败时已写入参数错误响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		responses.ErrorWithDetail(c, responses.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return false
	}
	return true
}

// bindQuery 绑定查询参数, 失败时已写入参数错误响应
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		responses.ErrorWithDetail(c, responses.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return false
	}
	return true
}

// pathID 解析路径中的 :id, what 用于错误提示
func pathID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		detail := "id 必须为正整数"
		if err != nil {
			detail = err.Error()
		}
		responses.ErrorWithDetail(c, responses.CodeBadRequest, "无效的"+what+"ID", detail)
		return 0, false
	}
	return id, true
}
