package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/adapter/sidecar"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/database"
	"onprem-cd/internal/pkg/ratelimit"
	"onprem-cd/pkg/responses"
)

const adminToken = "admin-token"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "debug", PublicURL: "https://cd.example.com"},
		Auth:      config.AuthConfig{JWT: config.JWTConfig{Secret: "test-secret", Issuer: "onprem-cd"}, APIToken: adminToken},
		Agent:     config.AgentConfig{Name: "onprem-agent", Image: "ghcr.io/contextco/shepherd", Tag: "master"},
		Heartbeat: config.HeartbeatConfig{WindowDays: 7},
	}
	logger := zap.NewNop()
	return Setup(cfg, &Dependencies{
		DB:       db,
		Sidecar:  sidecar.NewMockClient(),
		Store:    blobstore.NewMemoryStore(),
		Notifier: notification.NewLogNotifier(logger),
		Limiter:  ratelimit.NewMemoryLimiter(100, time.Minute),
	}, logger)
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func admin(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+adminToken)
}

// call 调用管理接口并断言业务成功
func call(t *testing.T, r *gin.Engine, method, path string, body interface{}, out interface{}) {
	t.Helper()
	w := do(t, r, method, path, body, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, responses.CodeSuccess, env.Code, env.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code
}

type idResp struct {
	ID int64 `json:"id"`
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "onprem_cd_http_requests_total")
}

func TestAdminTokenRequired(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/projects", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, responses.CodeUnauthorized, codeOf(t, w))

	w = do(t, r, http.MethodGet, "/api/v1/projects", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer wrong")
	})
	assert.Equal(t, responses.CodeUnauthorized, codeOf(t, w))

	call(t, r, http.MethodGet, "/api/v1/projects", nil, nil)
}

func TestBindingErrors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/project", map[string]interface{}{}, admin)
	assert.Equal(t, responses.CodeBadRequest, codeOf(t, w))

	w = do(t, r, http.MethodDelete, "/api/v1/version/abc", nil, admin)
	assert.Equal(t, responses.CodeBadRequest, codeOf(t, w))

	w = do(t, r, http.MethodGet, "/api/v1/version?id=404", nil, admin)
	assert.Equal(t, responses.CodeNotFound, codeOf(t, w))
}

func TestPublishFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	var project idResp
	call(t, r, http.MethodPost, "/api/v1/project", map[string]interface{}{"name": "acme"}, &project)

	var version idResp
	call(t, r, http.MethodPost, "/api/v1/version", map[string]interface{}{
		"project_id": project.ID, "version": "1.0.0",
	}, &version)

	call(t, r, http.MethodPost, "/api/v1/service", map[string]interface{}{
		"project_version_id": version.ID,
		"name":               "web",
		"image":              "nginx:1.27",
		"cpu_cores":          1,
		"memory_bytes":       1 << 30,
		"ports":              []int{80},
	}, nil)

	var subscriber idResp
	call(t, r, http.MethodPost, "/api/v1/subscriber", map[string]interface{}{
		"project_id": project.ID, "name": "ops",
	}, &subscriber)

	var user struct {
		Name           string `json:"name"`
		Password       string `json:"password"`
		AddRepoCommand string `json:"add_repo_command"`
	}
	call(t, r, http.MethodPost, "/api/v1/subscriber/helm_user", map[string]interface{}{
		"subscriber_id": subscriber.ID, "name": "ops",
	}, &user)
	require.NotEmpty(t, user.Password)
	assert.Contains(t, user.AddRepoCommand, "https://cd.example.com/helm/acme")

	var published struct {
		Directories []string `json:"directories"`
	}
	call(t, r, http.MethodPost, "/api/v1/version/publish", map[string]interface{}{"id": version.ID}, &published)
	assert.Equal(t, []string{"acme-ops"}, published.Directories)

	// helm 仓库读取
	w := do(t, r, http.MethodGet, "/helm/acme/acme-1.0.0-values.yaml", nil, func(req *http.Request) {
		req.SetBasicAuth("ops", user.Password)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodGet, "/helm/acme/acme-9.9.9.tgz", nil, func(req *http.Request) {
		req.SetBasicAuth("ops", user.Password)
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/helm/acme/index.yaml", nil, func(req *http.Request) {
		req.SetBasicAuth("ops", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Basic realm="acme"`, w.Header().Get("WWW-Authenticate"))

	w = do(t, r, http.MethodPost, "/helm/acme/api/charts", nil, func(req *http.Request) {
		req.SetBasicAuth("ops", user.Password)
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 已发布的版本不可再编辑
	w = do(t, r, http.MethodDelete, "/api/v1/version/1", nil, admin)
	assert.Equal(t, responses.CodeConflict, codeOf(t, w))
}

func TestAgentEndpoints(t *testing.T) {
	r := newTestRouter(t)

	var project idResp
	call(t, r, http.MethodPost, "/api/v1/project", map[string]interface{}{"name": "acme"}, &project)
	var subscriber idResp
	call(t, r, http.MethodPost, "/api/v1/subscriber", map[string]interface{}{
		"project_id": project.ID, "name": "ops",
	}, &subscriber)

	var token struct {
		Token string `json:"token"`
	}
	call(t, r, http.MethodPost, "/api/v1/subscriber/token", map[string]interface{}{"id": subscriber.ID}, &token)
	require.NotEmpty(t, token.Token)

	bearer := func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token.Token)
	}

	w := do(t, r, http.MethodPost, "/api/v1/agent/heartbeat", map[string]interface{}{
		"identity": map[string]interface{}{"name": "agent", "lifecycle_id": "l1"},
	}, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, responses.CodeSuccess, codeOf(t, w))

	w = do(t, r, http.MethodPost, "/api/v1/agent/apply", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, responses.CodeSuccess, env.Code)
	assert.JSONEq(t, `{"action":null}`, string(env.Data))

	// 管理 token 不能调用 agent 接口
	w = do(t, r, http.MethodPost, "/api/v1/agent/apply", nil, admin)
	assert.Equal(t, responses.CodeUnauthorized, codeOf(t, w))

	var status struct {
		CurrentStatus string `json:"current_status"`
	}
	call(t, r, http.MethodGet, "/api/v1/subscriber/status?id=1", nil, &status)
	assert.Equal(t, "online", status.CurrentStatus)
}
