package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"onprem-cd/internal/pkg/ratelimit"
	"onprem-cd/internal/service"
	"onprem-cd/pkg/constants"
	"onprem-cd/pkg/responses"
)

type fakeHelm struct{}

func (fakeHelm) Authenticate(repoName, userName, password string) error {
	if repoName == "acme" && userName == "ops" && password == "secret" {
		return nil
	}
	return responses.ErrHelmUserInvalid
}

func (fakeHelm) Fetch(ctx context.Context, repoName, userName, filename string) (*service.HelmFile, error) {
	return nil, responses.ErrNotFound
}

func serve(r *gin.Engine, method, path string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/x", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPITokenMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(APITokenMiddleware("admin"))
	r.GET("/x", func(c *gin.Context) { responses.Success(c, nil) })

	w := serve(r, http.MethodGet, "/x", func(req *http.Request) {
		req.Header.Set(constants.HeaderAuthorization, "Token admin")
	})
	assert.Contains(t, w.Body.String(), `"code":4010000`)

	w = serve(r, http.MethodGet, "/x", func(req *http.Request) {
		req.Header.Set(constants.HeaderAuthorization, "Bearer admin")
	})
	assert.Contains(t, w.Body.String(), `"code":2000000`)

	open := gin.New()
	open.Use(APITokenMiddleware(""))
	open.GET("/x", func(c *gin.Context) { responses.Success(c, nil) })
	assert.Contains(t, serve(open, http.MethodGet, "/x", nil).Body.String(), `"code":2000000`)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimit.NewMemoryLimiter(2, time.Minute)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", nil).Code)
	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":4290000`)
}

func TestHelmBasicAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/helm/:repo/:filename", HelmBasicAuthMiddleware(fakeHelm{}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(constants.ContextKeyHelmUser))
	})

	w := serve(r, http.MethodGet, "/helm/acme/index.yaml", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="acme"`, w.Header().Get("WWW-Authenticate"))

	w = serve(r, http.MethodGet, "/helm/acme/index.yaml", func(req *http.Request) {
		req.SetBasicAuth("ops", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), responses.ErrHelmUserInvalid.Message)

	w = serve(r, http.MethodGet, "/helm/acme/index.yaml", func(req *http.Request) {
		req.SetBasicAuth("ops", "secret")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}
