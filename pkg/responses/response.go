package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// 管理接口 HTTP 状态码固定 200, 业务结果看 Code
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"` // 详细错误信息（可选）
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据
type PageData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// httpStatuses 业务码对应的 HTTP 状态码, 仅 AbortWithError 使用
var httpStatuses = map[int]int{
	CodeBadRequest:      http.StatusBadRequest,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeTooManyRequests: http.StatusTooManyRequests,
	CodeRemoteError:     http.StatusBadGateway,
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: "success", Data: data})
}

// PageSuccess 分页成功响应
func PageSuccess(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	Success(c, PageData{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Error 错误响应
func Error(c *gin.Context, err error) {
	c.JSON(http.StatusOK, FromError(err))
}

// ErrorWithCode 自定义错误响应
func ErrorWithCode(c *gin.Context, code int, message string) {
	ErrorWithDetail(c, code, message, "")
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.JSON(http.StatusOK, Response{Code: code, Message: message, Detail: detail})
}

// AbortWithError 以业务码对应的 HTTP 状态码中止请求
// helm 客户端、限流等调用方只认 HTTP 状态码
func AbortWithError(c *gin.Context, err error) {
	resp := FromError(err)
	status, ok := httpStatuses[resp.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, resp)
}

// FromError 将 err 转为响应体, 非 AppError 按内部错误处理
// chart 校验失败时 detail 中携带 sidecar 返回的完整错误文本
func FromError(err error) Response {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return Response{Code: CodeInternalError, Message: err.Error()}
	}

	resp := Response{Code: appErr.Code, Message: appErr.Message}
	if appErr.Code == CodeValidationError && appErr.Err != nil {
		resp.Detail = appErr.Err.Error()
	}
	return resp
}
