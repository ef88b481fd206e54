package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingDispatcher struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intent notify.Intent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return nil
}

func (d *recordingDispatcher) sent() []notify.Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Intent(nil), d.intents...)
}

type testServer struct {
	app        *App
	router     *gin.Engine
	dispatcher *recordingDispatcher
}

// principalHeader carries the caller identity in tests in place of a
// Cognito token.
const principalHeader = "X-Test-Principal"

func newTestServer(t *testing.T, mutate ...func(*deps)) *testServer {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	d := deps{dispatcher: dispatcher}
	for _, m := range mutate {
		m(&d)
	}
	app := newApp(d)

	auth := func(c *gin.Context) {
		raw := c.GetHeader(principalHeader)
		if raw == "" {
			c.Next()
			return
		}
		var p models.Principal
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		middleware.SetPrincipal(c, &p)
		c.Next()
	}
	roles := middleware.NewAuthMiddlewareWithValidator(nil, nil, "")

	router := gin.New()
	app.registerRoutes(router, guards{auth: auth, staff: roles.RequireRole(staffRoles...)})
	return &testServer{app: app, router: router, dispatcher: dispatcher}
}

func manager(tenant uuid.UUID) *models.Principal {
	return &models.Principal{SubjectID: "manager-" + tenant.String()[:4], TenantID: tenant, DisplayName: "Mia Manager", Role: models.RoleManager}
}

func occupantUser(tenant uuid.UUID, sub string) *models.Principal {
	return &models.Principal{SubjectID: sub, TenantID: tenant, DisplayName: "Olu Occupant", Role: models.RoleOccupant}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *testServer) do(t *testing.T, p *models.Principal, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		req.Header.Set(principalHeader, string(raw))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

// create posts body to path and returns the new id.
func (s *testServer) create(t *testing.T, p *models.Principal, path string, body interface{}) uuid.UUID {
	t.Helper()
	code, env := s.do(t, p, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var out struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
