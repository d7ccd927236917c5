package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"onprem-cd/internal/model"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/constants"
	"onprem-cd/pkg/responses"
)

// APITokenMiddleware 管理接口认证, token 为空时放行
func APITokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		bearer, ok := bearerToken(c)
		if !ok {
			return
		}
		if subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			responses.Error(c, responses.ErrInvalidToken)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AgentAuthMiddleware agent 令牌认证, 通过后将订阅方存入 context
func AgentAuthMiddleware(agents service.AgentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		subscriber, err := agents.Authenticate(token)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}
		c.Set(constants.ContextKeySubscriber, subscriber)
		c.Next()
	}
}

// HelmBasicAuthMiddleware helm 仓库 basic auth, 认证失败返回 401 以便 helm 客户端提示
func HelmBasicAuthMiddleware(helm service.HelmRepoService) gin.HandlerFunc {
	return func(c *gin.Context) {
		repoName := c.Param("repo")
		user, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, repoName, responses.ErrUnauthorized)
			return
		}
		if err := helm.Authenticate(repoName, user, password); err != nil {
			unauthorized(c, repoName, err)
			return
		}
		c.Set(constants.ContextKeyHelmUser, user)
		c.Next()
	}
}

// CurrentSubscriber 当前请求的订阅方
func CurrentSubscriber(c *gin.Context) *model.Subscriber {
	v, ok := c.Get(constants.ContextKeySubscriber)
	if !ok {
		return nil
	}
	subscriber, _ := v.(*model.Subscriber)
	return subscriber
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		responses.ErrorWithCode(c, responses.CodeUnauthorized, "缺少Authorization Header")
		c.Abort()
		return "", false
	}
	if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
		responses.ErrorWithCode(c, responses.CodeUnauthorized, "Authorization格式错误")
		c.Abort()
		return "", false
	}
	return strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix), true
}

func unauthorized(c *gin.Context, realm string, err error) {
	c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
	var appErr *responses.AppError
	if !errors.As(err, &appErr) || appErr.Code != responses.CodeUnauthorized {
		err = responses.Wrap(responses.CodeUnauthorized, "未授权", err)
	}
	responses.AbortWithError(c, err)
}
