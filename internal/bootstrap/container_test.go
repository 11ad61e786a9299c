package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/auth"
	"github.com/emmanuelfore/tarisa-sub001/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "tarisa-test", Env: "test", Version: "test", RequestTimeoutSeconds: 5},
		Logger: config.LoggerConfig{Level: "error"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5},
		Escalation: config.EscalationConfig{
			SweepIntervalSeconds:       60,
			Workers:                    2,
			IssueTimeoutSeconds:        5,
			L3Multiplier:               2,
			L4Multiplier:               3,
			UnassignedResolutionFactor: 2,
		},
		Duplicate: config.DuplicateConfig{RadiusMeters: 100},
		Reference: config.ReferenceConfig{RefreshIntervalSeconds: 60},
	}
}

type harness struct {
	t         *testing.T
	container *Container
	app       *fiber.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c, err := New(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	require.NotNil(t, c.Reference.Current(), "embedded seed should load")
	return &harness{t: t, container: c, app: c.NewApp()}
}

func (h *harness) token(role auth.Role) string {
	tok, _, err := h.container.Tokens.GenerateToken("op-1", role)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path string, body any, token string) (int, map[string]any) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestSubmitAndFetchOverHTTP(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPost, "/v1/issues", map[string]any{
		"reporter_id": "citizen-1",
		"category":    "water",
		"description": "burst pipe",
		"latitude":    -17.83,
		"longitude":   31.05,
	}, "")
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	issue := data["issue"].(map[string]any)
	assert.Equal(t, "submitted", issue["status"])
	assert.NotNil(t, issue["assigned_department_id"])
	tracking := issue["tracking_id"].(string)
	assert.Regexp(t, `^TRS-[0-9A-F]{8}$`, tracking)

	status, body = h.do(http.MethodGet, "/v1/issues/"+tracking, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, issue["id"], body["data"].(map[string]any)["id"])

	status, body = h.do(http.MethodGet, "/v1/issues/"+issue["id"].(string)+"/history", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPost, "/v1/issues", map[string]any{"category": "water"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestOperatorRoutesRequireAuth(t *testing.T) {
	h := newHarness(t)

	_, body := h.do(http.MethodPost, "/v1/issues", map[string]any{
		"reporter_id": "citizen-1",
		"category":    "roads",
		"latitude":    -17.83,
		"longitude":   31.05,
	}, "")
	id := body["data"].(map[string]any)["issue"].(map[string]any)["id"].(string)

	status, body := h.do(http.MethodPost, "/v1/issues/"+id+"/escalate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = h.do(http.MethodPost, "/v1/issues/"+id+"/escalate", nil, h.token(auth.RoleOfficer))
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(http.MethodPost, "/v1/issues/"+id+"/escalate", nil, h.token(auth.RoleManager))
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 2, body["data"].(map[string]any)["escalation_level"])

	status, _ = h.do(http.MethodPost, "/v1/admin/reference/refresh", nil, h.token(auth.RoleManager))
	assert.Equal(t, http.StatusForbidden, status)

	status, body = h.do(http.MethodPost, "/v1/admin/reference/refresh", nil, h.token(auth.RoleSuperAdmin))
	require.Equal(t, http.StatusOK, status)
	assert.NotZero(t, body["data"].(map[string]any)["jurisdictions"])
}

func TestStatusTransitionOverHTTP(t *testing.T) {
	h := newHarness(t)
	_, body := h.do(http.MethodPost, "/v1/issues", map[string]any{
		"reporter_id": "citizen-2",
		"category":    "water",
		"latitude":    -17.83,
		"longitude":   31.05,
	}, "")
	id := body["data"].(map[string]any)["issue"].(map[string]any)["id"].(string)
	officer := h.token(auth.RoleOfficer)

	status, body := h.do(http.MethodPost, "/v1/issues/"+id+"/status", map[string]any{"status": "closed"}, officer)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, body = h.do(http.MethodPost, "/v1/issues/"+id+"/status", map[string]any{"status": "resolved"}, officer)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "resolved", body["data"].(map[string]any)["status"])
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status, body)

	status, body = h.do(http.MethodGet, "/v1/issues/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = h.do(http.MethodGet, "/v1/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = h.do(http.MethodGet, "/v1/jurisdictions/resolve?lat=-17.83&lng=31.05", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ward", body["data"].(map[string]any)["level"])

	status, body = h.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "requests")
}
