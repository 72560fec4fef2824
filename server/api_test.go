package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cordonhq/cordon/pkg/aiexplain"
	"github.com/cordonhq/cordon/pkg/config"
	"github.com/cordonhq/cordon/pkg/store"
	"github.com/cordonhq/cordon/pkg/stream"
)

const (
	testTenant = "tenant-a"
	testUser   = "user-1"
	adminToken = "admin-secret"
)

type testEnv struct {
	server *Server
	gin    *gin.Engine
	store  *store.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	hub := stream.NewHub(zerolog.Nop())
	st := store.New(db, zerolog.Nop(), hub)
	require.NoError(t, st.Migrate())
	require.NoError(t, st.Seed(context.Background(), testTenant))
	require.NoError(t, st.PutUserProfile(context.Background(), store.UserProfile{UserID: testUser, TenantID: testTenant}))

	cfg := config.Default()
	cfg.Server.AdminToken = adminToken

	srv := &Server{
		store:      st,
		hub:        hub,
		analyst:    aiexplain.Simulated{},
		limiter:    NewRateLimiter(),
		log:        zerolog.Nop(),
		cfg:        cfg,
		adminToken: adminToken,
	}

	g := gin.New()
	srv.registerRoutes(g)
	return testEnv{server: srv, gin: g, store: st}
}

func (env testEnv) do(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	env.gin.ServeHTTP(resp, req)
	return resp
}

func TestAuth_MissingAndUnknownBearer(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/devices", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/devices", "nobody", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdmin_BindUserAndSeed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/admin/users", adminToken, map[string]string{
		"user_id":   "user-2",
		"tenant_id": "tenant-b",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/admin/tenants/tenant-b/seed", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/devices", "user-2", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var devices []store.Device
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &devices))
	require.Len(t, devices, 7)

	resp = env.do(t, http.MethodPost, "/v1/admin/users", "wrong", map[string]string{"user_id": "x", "tenant_id": "y"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDevices_ListAndGet(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/devices", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var devices []store.Device
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &devices))
	require.Len(t, devices, 7)

	resp = env.do(t, http.MethodGet, "/v1/devices/DEV001", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/devices/nope", testUser, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDevices_BulkIsolate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/devices/isolate", testUser, map[string]any{
		"device_ids": []string{"DEV001", "DEV005"},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		FullyCommitted bool `json:"fully_committed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.True(t, result.FullyCommitted)

	device, err := env.store.GetDevice(context.Background(), testTenant, "DEV005")
	require.NoError(t, err)
	require.Equal(t, store.DeviceIsolated, device.Status)
	require.Equal(t, store.RiskHigh, device.RiskLevel)
}

func TestDevices_ChangePolicyValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/devices/DEV001/policy", testUser, map[string]string{"policy": "Balanced"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/devices/DEV001/policy", testUser, map[string]string{"policy": "Paranoid"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/devices/nope/policy", testUser, map[string]string{"policy": "Strict"})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDevices_Enroll(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/devices", testUser, map[string]string{
		"deviceName": "finance-laptop-02",
		"ipAddress":  "192.168.1.11",
		"os":         "Windows",
		"policy":     "Balanced",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	devices, err := env.store.ListDevices(context.Background(), testTenant)
	require.NoError(t, err)
	require.Len(t, devices, 8)
}

func TestAlerts_StatusTransition(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/alerts/TH001/status", testUser, map[string]string{"status": "Resolved"})
	require.Equal(t, http.StatusOK, resp.Code)

	alert, err := env.store.GetAlert(context.Background(), testTenant, "TH001")
	require.NoError(t, err)
	require.Equal(t, store.AlertResolved, alert.Status)
	require.NotNil(t, alert.ResolvedAt)

	resp = env.do(t, http.MethodPost, "/v1/alerts/TH001/status", testUser, map[string]string{"status": "Active"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestAlerts_IsolateFromAlert(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/alerts/TH001/isolate-device", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var out store.IsolationOutcome
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.True(t, out.DeviceIsolated)
	require.True(t, out.AlertQuarantined)

	device, err := env.store.GetDevice(context.Background(), testTenant, "DEV001")
	require.NoError(t, err)
	require.True(t, device.Isolated)
}

func TestAlerts_ExplainAttachesAnalysis(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/alerts/TH001/explain", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var out aiexplain.ExplainOutput
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Explanation)
	require.Equal(t, aiexplain.SeverityHigh, out.Severity)

	alert, err := env.store.GetAlert(context.Background(), testTenant, "TH001")
	require.NoError(t, err)
	require.Equal(t, out.Explanation, alert.AIExplanation)
	require.NotNil(t, alert.ExplanationGeneratedAt)
}

func TestPolicies_SaveSettings(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/v1/policies/Strict", testUser, map[string]any{
		"scanLevel":         "quick",
		"autoQuarantine":    false,
		"offlineProtection": true,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	policy, err := env.store.GetPolicy(context.Background(), testTenant, store.PolicyStrict)
	require.NoError(t, err)
	require.Equal(t, store.ScanQuick, policy.ScanLevel)

	resp = env.do(t, http.MethodPut, "/v1/policies/Strict", testUser, map[string]any{"scanLevel": "extreme"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = env.do(t, http.MethodPut, "/v1/policies/Custom", testUser, map[string]any{"scanLevel": "full"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestTokens_IssueAndRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.server.cfg.Server.TokenRateLimit = 2

	var tokens []string
	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodPost, "/v1/enroll/tokens", testUser, nil)
		require.Equal(t, http.StatusCreated, resp.Code)
		var out struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
		tokens = append(tokens, out.Token)
	}
	require.NotEqual(t, tokens[0], tokens[1])

	resp := env.do(t, http.MethodPost, "/v1/enroll/tokens", testUser, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/enroll/tokens", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
}

func TestStatsAndAudit(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/devices/isolate", testUser, map[string]any{"device_ids": []string{"DEV001"}})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/stats", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats store.DashboardStats
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	require.EqualValues(t, 1, stats.DevicesIsolated)

	resp = env.do(t, http.MethodGet, "/v1/audit?limit=10", testUser, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var entries []store.AuditLogEntry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.NotEmpty(t, entries)
	require.Equal(t, "DEVICE_ISOLATED", entries[0].Action)
}

func TestSummarize(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/ai/summarize", testUser, map[string]string{
		"timePeriod":        "last week",
		"threatsDetected":   "2 malware detections",
		"resolvedIncidents": "1 phishing attempt resolved",
		"policyChanges":     "Strict policy tightened",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var out aiexplain.SummarizeOutput
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Summary)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}
