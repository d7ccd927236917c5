package responses

import "fmt"

// 错误码
const (
	CodeSuccess         = 2000000
	CodeBadRequest      = 4000000
	CodeUnauthorized    = 4010000
	CodeForbidden       = 4030000
	CodeNotFound        = 4040000
	CodeConflict        = 4009000
	CodeTooManyRequests = 4290000
	CodeInternalError   = 5000000
	CodeDatabaseError   = 5001000
	CodeAuthError       = 5002000
	CodeValidationError = 5003000 // chart 校验失败, message 携带完整错误
	CodeConfigError     = 5004000 // 依赖目录/override 配置错误
	CodeRemoteError     = 5020000 // sidecar / 对象存储调用失败
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Is / errors.As 穿透
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrTooManyRequests = New(CodeTooManyRequests, "请求过于频繁")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	ErrInvalidParams   = New(CodeBadRequest, "请求参数错误")
	ErrInvalidToken    = New(CodeUnauthorized, "无效的Token")
	ErrRecordNotFound  = New(CodeNotFound, "记录不存在")
	ErrRecordExists    = New(CodeConflict, "记录已存在")
	ErrVersionLocked   = New(CodeConflict, "版本已提交, 不可修改")
	ErrStateConflict   = New(CodeConflict, "版本状态已变更")
	ErrRemoteCall      = New(CodeRemoteError, "远程服务调用失败")
	ErrHelmUserInvalid = New(CodeUnauthorized, "helm 仓库用户名或密码错误")
)
