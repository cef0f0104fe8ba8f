package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/config"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
)

type stubProjects struct {
	pingErr error
}

func (s *stubProjects) Save(context.Context, application.ProjectKey, domain.Record) (application.SaveResult, error) {
	return application.SaveResult{}, nil
}

func (s *stubProjects) Load(context.Context, application.ProjectKey) (*application.Project, error) {
	return nil, application.ErrProjectNotFound
}

func (s *stubProjects) SetApproval(context.Context, application.ProjectKey, domain.ApprovalStatus) error {
	return nil
}

func (s *stubProjects) Preview(record domain.Record) []domain.Task { return domain.Derive(record) }

func (s *stubProjects) Ping(context.Context) error { return s.pingErr }

func newTestServer(t *testing.T, projects *stubProjects, logger *zap.Logger, origins ...string) (*Server, *auth.Service) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("anze2025"), bcrypt.MinCost)
	require.NoError(t, err)
	authService, err := auth.NewService(string(hash), auth.NewJWTManager(strings.Repeat("k", 32), "anzeguard", time.Hour))
	require.NoError(t, err)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg := &config.Config{
		HTTP:     config.HTTPConfig{Addr: ":0", AllowedOrigins: origins, RequestTimeout: time.Second},
		Location: time.UTC,
	}
	srv := New(cfg, Dependencies{
		Logger:   logger,
		Projects: projects,
		Auth:     authService,
		Reports:  pdf.NewComposer(nil, zap.NewNop()),
	})
	return srv, authService
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	projects := &stubProjects{}
	srv, _ := newTestServer(t, projects, zap.NewNop())
	router := srv.Router()

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])

	projects.pingErr = errors.New("server selection timeout")
	rec = serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestAuthMiddleware(t *testing.T) {
	srv, authService := newTestServer(t, &stubProjects{}, zap.NewNop())
	router := srv.Router()

	token, err := authService.Login("anze2025")
	require.NoError(t, err)
	other, _, err := auth.NewJWTManager(strings.Repeat("x", 32), "anzeguard", time.Hour).Generate(auth.SubjectConsultant)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"foreign secret", "Bearer " + other, http.StatusUnauthorized},
		{"valid", "Bearer " + token.AccessToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, serve(router, req).Code)
		})
	}
}

func TestLoginIsPublic(t *testing.T) {
	srv, _ := newTestServer(t, &stubProjects{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"passphrase":"anze2025"}`))
	rec := serve(srv.Router(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessToken")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, &stubProjects{}, zap.NewNop())
	router := srv.Router()

	for _, target := range []string{
		"/companies/demo/projects/2025_01",
		"/companies/demo/projects/2025_01/exports/plan",
	} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, &stubProjects{}, zap.NewNop(), "https://app.example")
	router := srv.Router()

	req := httptest.NewRequest(http.MethodOptions, "/companies/demo/projects/p1/assessment", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := serve(router, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Report-Warning")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("https://a", nil))
	assert.True(t, originAllowed("https://a", map[string]struct{}{"https://a": {}}))
	assert.False(t, originAllowed("https://b", map[string]struct{}{"https://a": {}}))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv, _ := newTestServer(t, &stubProjects{}, zap.New(core))

	serve(srv.Router(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/healthz", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["requestId"])
}
