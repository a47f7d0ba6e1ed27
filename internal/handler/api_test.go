package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskboard-service/internal/audit"
	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/service"
	"taskboard-service/pkg/config"
	"taskboard-service/pkg/jwtutil"
)

// newTestApp wires the full route table against an in-memory database.
func newTestApp(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Project{},
		&model.Task{},
		&model.AuditLog{},
	))

	jwtUtil := jwtutil.New(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 24})
	recorder := audit.NewRecorder(db, zap.NewNop())

	authHandler := NewAuthHandler(service.NewAuthService(db, jwtUtil, recorder))
	tenantHandler := NewTenantHandler(service.NewTenantService(db, recorder))
	userHandler := NewUserHandler(service.NewUserService(db, recorder))
	projectHandler := NewProjectHandler(service.NewProjectService(db, recorder))
	taskHandler := NewTaskHandler(service.NewTaskService(db, recorder))
	healthHandler := NewHealthHandler(db)

	e := echo.New()

	e.GET("/api/health", healthHandler.Check)

	api := e.Group("/api")
	api.POST("/auth/register-tenant", authHandler.RegisterTenant)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", middleware.JWTAuthMiddleware(jwtUtil))
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/tenants", tenantHandler.List)
	protected.GET("/tenants/:tenantId", tenantHandler.Get)
	protected.PUT("/tenants/:tenantId", tenantHandler.Update)
	protected.POST("/tenants/:tenantId/users", userHandler.Create)
	protected.GET("/tenants/:tenantId/users", userHandler.List)
	protected.PUT("/users/:userId", userHandler.Update)
	protected.DELETE("/users/:userId", userHandler.Delete)
	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects", projectHandler.List)
	protected.GET("/projects/:projectId", projectHandler.Get)
	protected.PUT("/projects/:projectId", projectHandler.Update)
	protected.DELETE("/projects/:projectId", projectHandler.Delete)
	protected.POST("/projects/:projectId/tasks", taskHandler.Create)
	protected.GET("/projects/:projectId/tasks", taskHandler.List)
	protected.PUT("/tasks/:taskId", taskHandler.Update)
	protected.PATCH("/tasks/:taskId/status", taskHandler.UpdateStatus)

	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func registerAndLogin(t *testing.T, e *echo.Echo, subdomain string) string {
	t.Helper()

	rec, _ := doJSON(t, e, http.MethodPost, "/api/auth/register-tenant", "", map[string]interface{}{
		"tenantName":    "Acme Corp",
		"subdomain":     subdomain,
		"adminEmail":    "admin@" + subdomain + ".test",
		"adminPassword": "password123",
		"adminFullName": "Acme Admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":           "admin@" + subdomain + ".test",
		"password":        "password123",
		"tenantSubdomain": subdomain,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	token := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestApp(t)

	rec, body := doJSON(t, e, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "connected", body["database"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestApp(t)

	rec, body := doJSON(t, e, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = doJSON(t, e, http.MethodGet, "/api/projects", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterTenantValidation(t *testing.T) {
	e := newTestApp(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/auth/register-tenant", "", map[string]interface{}{
		"tenantName":    "Acme",
		"subdomain":     "",
		"adminEmail":    "not-an-email",
		"adminPassword": "short",
		"adminFullName": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	fields := body["data"].(map[string]interface{})
	assert.Contains(t, fields, "subdomain")
	assert.Contains(t, fields, "adminEmail")
	assert.Contains(t, fields, "adminPassword")
	assert.Contains(t, fields, "adminFullName")
}

func TestRegisterTenantDuplicateSubdomain(t *testing.T) {
	e := newTestApp(t)
	registerAndLogin(t, e, "acme")

	rec, body := doJSON(t, e, http.MethodPost, "/api/auth/register-tenant", "", map[string]interface{}{
		"tenantName":    "Second Acme",
		"subdomain":     "acme",
		"adminEmail":    "other@acme.test",
		"adminPassword": "password123",
		"adminFullName": "Other Admin",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "subdomain already exists", body["message"])
}

func TestProjectAndTaskFlow(t *testing.T) {
	e := newTestApp(t)
	token := registerAndLogin(t, e, "acme")

	rec, body := doJSON(t, e, http.MethodPost, "/api/projects", token, map[string]interface{}{
		"name":        "Launch",
		"description": "Q3 launch",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	projectID := body["data"].(map[string]interface{})["id"].(string)

	rec, body = doJSON(t, e, http.MethodPost, "/api/projects/"+projectID+"/tasks", token, map[string]interface{}{
		"title":    "Write brief",
		"priority": "high",
		"dueDate":  "2026-09-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := body["data"].(map[string]interface{})
	taskID := task["id"].(string)
	assert.Equal(t, "todo", task["status"])
	assert.Equal(t, "high", task["priority"])

	rec, body = doJSON(t, e, http.MethodGet, "/api/projects/"+projectID+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := body["data"].(map[string]interface{})["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write brief", tasks[0].(map[string]interface{})["title"])

	rec, body = doJSON(t, e, http.MethodPatch, "/api/tasks/"+taskID+"/status", token, map[string]interface{}{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "in_progress", body["data"].(map[string]interface{})["status"])

	// Explicit null clears the due date.
	rec, body = doJSON(t, e, http.MethodPut, "/api/tasks/"+taskID, token, map[string]interface{}{
		"title":   "Write the brief",
		"dueDate": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := body["data"].(map[string]interface{})
	assert.Equal(t, "Write the brief", updated["title"])
	assert.Nil(t, updated["dueDate"])

	rec, body = doJSON(t, e, http.MethodGet, "/api/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), detail["taskCount"])
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	e := newTestApp(t)
	acmeToken := registerAndLogin(t, e, "acme")
	globexToken := registerAndLogin(t, e, "globex")

	rec, body := doJSON(t, e, http.MethodPost, "/api/projects", acmeToken, map[string]interface{}{
		"name": "Secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	projectID := body["data"].(map[string]interface{})["id"].(string)

	// A foreign tenant cannot even confirm the project exists.
	rec, _ = doJSON(t, e, http.MethodGet, "/api/projects/"+projectID, globexToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// But a task listing under it is an explicit refusal.
	rec, body = doJSON(t, e, http.MethodGet, "/api/projects/"+projectID+"/tasks", globexToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "project does not belong to your tenant", body["message"])
}

func TestUserManagementFlow(t *testing.T) {
	e := newTestApp(t)
	token := registerAndLogin(t, e, "acme")

	rec, body := doJSON(t, e, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := body["data"].(map[string]interface{})
	tenantID := me["tenant"].(map[string]interface{})["id"].(string)

	rec, body = doJSON(t, e, http.MethodPost, "/api/tenants/"+tenantID+"/users", token, map[string]interface{}{
		"email":    "alice@acme.test",
		"password": "password123",
		"fullName": "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := body["data"].(map[string]interface{})
	assert.Equal(t, "user", created["role"])
	userID := created["id"].(string)

	rec, body = doJSON(t, e, http.MethodGet, "/api/tenants/"+tenantID+"/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := body["data"].(map[string]interface{})["users"].([]interface{})
	assert.Len(t, users, 2)

	rec, _ = doJSON(t, e, http.MethodPut, "/api/users/"+userID, token, map[string]interface{}{
		"role": "tenant_admin",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, e, http.MethodDelete, "/api/users/"+userID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Deleting yourself is refused.
	rec, body = doJSON(t, e, http.MethodDelete, "/api/users/"+me["id"].(string), token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "cannot delete yourself", body["message"])
}

func TestTenantUpdateRestrictedOverHTTP(t *testing.T) {
	e := newTestApp(t)
	token := registerAndLogin(t, e, "acme")

	_, body := doJSON(t, e, http.MethodGet, "/api/auth/me", token, nil)
	tenantID := body["data"].(map[string]interface{})["tenant"].(map[string]interface{})["id"].(string)

	rec, body := doJSON(t, e, http.MethodPut, "/api/tenants/"+tenantID, token, map[string]interface{}{
		"subscriptionPlan": "enterprise",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "cannot update restricted fields", body["message"])

	rec, _ = doJSON(t, e, http.MethodPut, "/api/tenants/"+tenantID, token, map[string]interface{}{
		"name": "Acme Industries",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantListIsSuperAdminOnly(t *testing.T) {
	e := newTestApp(t)
	token := registerAndLogin(t, e, "acme")

	rec, _ := doJSON(t, e, http.MethodGet, "/api/tenants", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
