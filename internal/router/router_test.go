package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknexus/server/internal/config"
	"github.com/tasknexus/server/internal/dto"
	"github.com/tasknexus/server/internal/metrics"
	"github.com/tasknexus/server/internal/services"
	"github.com/tasknexus/server/internal/testutil"
	"go.uber.org/zap"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, &config.Config{})
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := services.NewTokenService("router-secret", "test", 0)
	require.NoError(t, err)

	engine := New(Deps{
		DB:      testutil.NewDB(t),
		Config:  cfg,
		Logger:  zap.NewNop(),
		Metrics: metrics.New(),
		Tokens:  tokens,
	})
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(username, email, password string) dto.AuthResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.AuthResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterCreatesDefaultWorkspace(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.register("alice", "alice@x.com", "pw123")

	w := srv.do(http.MethodGet, "/api/workspaces", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Workspaces []dto.WorkspaceWithRoleDTO `json:"workspaces"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Workspaces, 1)
	assert.Equal(t, "alice Workspace", body.Workspaces[0].Name)
	assert.Equal(t, "owner", string(body.Workspaces[0].Role))

	w = srv.do(http.MethodGet, "/api/projects", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "My First Project")

	w = srv.do(http.MethodGet, "/api/auth/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"alice@x.com"`)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	srv := newTestServer(t)
	srv.register("alice", "alice@x.com", "pw123")

	w := srv.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice2",
		"email":    "alice@x.com",
		"password": "pw123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/workspaces", "/api/projects", "/api/tasks", "/api/analytics/dashboard", "/api/auth/me"} {
		w := srv.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := srv.do(http.MethodGet, "/api/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOtherWorkspacesAreInvisible(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.register("alice", "alice@x.com", "pw123")
	bob := srv.register("bob", "bob@x.com", "pw456")

	w := srv.do(http.MethodGet, "/api/projects", alice.Token, nil)
	var projects struct {
		Projects []struct {
			ID          uint64 `json:"id"`
			WorkspaceID uint64 `json:"workspace_id"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	require.Len(t, projects.Projects, 1)
	projectID := strconv.FormatUint(projects.Projects[0].ID, 10)
	workspaceID := strconv.FormatUint(projects.Projects[0].WorkspaceID, 10)

	w = srv.do(http.MethodPost, "/api/tasks", alice.Token, gin.H{"title": "secret", "project_id": projects.Projects[0].ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	taskID := strconv.FormatUint(task.ID, 10)

	for _, path := range []string{"/api/workspaces/" + workspaceID, "/api/projects/" + projectID, "/api/tasks/" + taskID} {
		w = srv.do(http.MethodGet, path, bob.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w = srv.do(http.MethodDelete, "/api/workspaces/"+workspaceID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(http.MethodGet, "/api/tasks", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tasks":[]`)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = srv.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`), w.Body.String())
}

func TestDeletedTaskLeavesProjectListing(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.register("alice", "alice@x.com", "pw123")

	w := srv.do(http.MethodPost, "/api/projects", alice.Token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/api/projects", alice.Token, nil)
	var projects struct {
		Projects []struct {
			ID uint64 `json:"id"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	require.Len(t, projects.Projects, 1)
	projectID := projects.Projects[0].ID

	var ids []uint64
	for _, title := range []string{"keep", "drop"} {
		w = srv.do(http.MethodPost, "/api/tasks", alice.Token, gin.H{"title": title, "project_id": projectID})
		require.Equal(t, http.StatusCreated, w.Code)
		var task dto.TaskDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		ids = append(ids, task.ID)
	}

	w = srv.do(http.MethodPut, "/api/tasks/"+strconv.FormatUint(ids[0], 10), alice.Token, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodDelete, "/api/tasks/"+strconv.FormatUint(ids[1], 10), alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodGet, "/api/tasks?projectId="+strconv.FormatUint(projectID, 10), alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, ids[0], list.Tasks[0].ID)

	w = srv.do(http.MethodGet, "/api/analytics/dashboard", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard dto.DashboardDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	var sum int64
	for _, sc := range dashboard.TasksByStatus {
		sum += sc.Count
	}
	assert.EqualValues(t, 1, dashboard.TotalTasks)
	assert.Equal(t, dashboard.TotalTasks, sum)
	assert.EqualValues(t, 1, dashboard.InProgressTasks)
}

func TestOnlyOwnedWorkspaceCannotBeDeleted(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.register("alice", "alice@x.com", "pw123")

	listWorkspaces := func() []dto.WorkspaceWithRoleDTO {
		w := srv.do(http.MethodGet, "/api/workspaces", alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Workspaces []dto.WorkspaceWithRoleDTO `json:"workspaces"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Workspaces
	}

	workspaces := listWorkspaces()
	require.Len(t, workspaces, 1)
	defaultID := strconv.FormatUint(workspaces[0].ID, 10)

	w := srv.do(http.MethodDelete, "/api/workspaces/"+defaultID, alice.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)
	assert.Len(t, listWorkspaces(), 1)

	w = srv.do(http.MethodPost, "/api/workspaces", alice.Token, gin.H{"name": "Side"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(http.MethodDelete, "/api/workspaces/"+defaultID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	remaining := listWorkspaces()
	require.Len(t, remaining, 1)
	assert.Equal(t, "Side", remaining[0].Name)
}

func TestAuthRateLimitSkipsMe(t *testing.T) {
	cfg := &config.Config{}
	cfg.RateLimit.AuthRPS = 0.001
	cfg.RateLimit.AuthBurst = 2
	srv := newTestServerWithConfig(t, cfg)

	alice := srv.register("alice", "alice@x.com", "pw123")

	w := srv.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@x.com", "password": "pw123"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	for i := 0; i < 3; i++ {
		w = srv.do(http.MethodGet, "/api/auth/me", alice.Token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
