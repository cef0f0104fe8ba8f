package checklist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
)

const planSheet = "年度健康服務計畫"

type fakeProjects struct {
	saveErr     error
	saved       []domain.Record
	project     *application.Project
	loadErr     error
	approval    domain.ApprovalStatus
	approvalErr error
}

func (f *fakeProjects) Save(_ context.Context, _ application.ProjectKey, record domain.Record) (application.SaveResult, error) {
	if f.saveErr != nil {
		return application.SaveResult{}, f.saveErr
	}
	f.saved = append(f.saved, record)
	return application.SaveResult{TasksGenerated: len(domain.Derive(record))}, nil
}

func (f *fakeProjects) Load(_ context.Context, key application.ProjectKey) (*application.Project, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.project == nil {
		return nil, application.ErrProjectNotFound
	}
	p := *f.project
	p.Key = key
	return &p, nil
}

func (f *fakeProjects) SetApproval(_ context.Context, _ application.ProjectKey, status domain.ApprovalStatus) error {
	if f.approvalErr != nil {
		return f.approvalErr
	}
	f.approval = status
	return nil
}

func (f *fakeProjects) Preview(record domain.Record) []domain.Task {
	return domain.Derive(record)
}

func (f *fakeProjects) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T, projects *fakeProjects) http.Handler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("anze2025"), bcrypt.MinCost)
	require.NoError(t, err)
	authService, err := auth.NewService(string(hash), auth.NewJWTManager(strings.Repeat("s", 32), "test", time.Hour))
	require.NoError(t, err)

	h := NewHandler(Config{
		Logger:   zap.NewNop(),
		Projects: projects,
		Auth:     authService,
		Reports:  pdf.NewComposer(nil, zap.NewNop()),
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC) },
	})

	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.ContextWithUser(r.Context(), common.AuthenticatedUser{Subject: auth.SubjectConsultant})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	r := chi.NewRouter()
	h.Register(r, withUser)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func acmeRecord() domain.Record {
	r := domain.Record{}
	r.CompanyName = "Acme Co"
	return r
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t, &fakeProjects{})

	rec := do(t, router, http.MethodPost, "/auth/login", map[string]string{"passphrase": "anze2025"})
	require.Equal(t, http.StatusOK, rec.Code)
	var token auth.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)

	rec = do(t, router, http.MethodPost, "/auth/login", map[string]string{"passphrase": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/login", map[string]string{"password": "anze2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/login", map[string]string{"passphrase": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerify(t *testing.T) {
	rec := do(t, newTestRouter(t, &fakeProjects{}), http.MethodGet, "/auth/verify", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subject":"consultant"`)
}

func TestPreview(t *testing.T) {
	rec := do(t, newTestRouter(t, &fakeProjects{}), http.MethodPost, "/tasks/preview", acmeRecord())

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []domain.Task `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 6)
	assert.Equal(t, domain.AllMonths(), resp.Items[0].Months)
}

func TestPreview_MalformedBody(t *testing.T) {
	rec := do(t, newTestRouter(t, &fakeProjects{}), http.MethodPost, "/tasks/preview", "{")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveAssessment(t *testing.T) {
	projects := &fakeProjects{}
	rec := do(t, newTestRouter(t, projects), http.MethodPut, "/companies/demo/projects/2025_01/assessment", acmeRecord())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tasksGenerated":6}`, rec.Body.String())
	require.Len(t, projects.saved, 1)
	assert.Equal(t, "Acme Co", projects.saved[0].CompanyName)
}

func TestSaveAssessment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing company", domain.ErrCompanyNameRequired, http.StatusBadRequest},
		{"invalid enum", fmt.Errorf("%w: shiftType", domain.ErrInvalidField), http.StatusBadRequest},
		{"in flight", application.ErrSubmissionInProgress, http.StatusConflict},
		{"write failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeProjects{saveErr: tt.err})
			rec := do(t, router, http.MethodPut, "/companies/demo/projects/2025_01/assessment", acmeRecord())
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSaveAssessment_WriteFailureHidesCause(t *testing.T) {
	router := newTestRouter(t, &fakeProjects{saveErr: errors.New("mongo: secret host unreachable")})
	rec := do(t, router, http.MethodPut, "/companies/demo/projects/2025_01/assessment", acmeRecord())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret host")
}

func TestProjectDetail(t *testing.T) {
	projects := &fakeProjects{}
	router := newTestRouter(t, projects)

	rec := do(t, router, http.MethodGet, "/companies/demo/projects/2025_01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	projects.project = &application.Project{
		Status:      application.StatusStage1Done,
		Assessment:  acmeRecord(),
		CompletedAt: "2025-02-02T12:05:06Z",
		Planning:    application.Planning{ApprovalStatus: domain.ApprovalDraft},
	}
	rec = do(t, router, http.MethodGet, "/companies/demo/projects/2025_01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "demo", body["companyId"])
	assert.Equal(t, "2025_01", body["projectId"])
	assert.Equal(t, "stage1_done", body["status"])
	assessment := body["stage1_assessment"].(map[string]any)
	assert.Equal(t, "Acme Co", assessment["companyName"])
	assert.Equal(t, "2025-02-02T12:05:06Z", assessment["completedAt"])
	planning := body["stage2_planning"].(map[string]any)
	assert.Equal(t, "DRAFT", planning["approvalStatus"])
	assert.Equal(t, []any{}, planning["tasks"])
}

func TestApprovalUpdate(t *testing.T) {
	projects := &fakeProjects{}
	router := newTestRouter(t, projects)

	rec := do(t, router, http.MethodPatch, "/companies/demo/projects/2025_01/approval", map[string]string{"approvalStatus": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"approvalStatus":"APPROVED"}`, rec.Body.String())
	assert.Equal(t, domain.ApprovalApproved, projects.approval)

	rec = do(t, router, http.MethodPatch, "/companies/demo/projects/2025_01/approval", map[string]string{"approvalStatus": "REJECTED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	projects.approvalErr = application.ErrProjectNotFound
	rec = do(t, router, http.MethodPatch, "/companies/demo/projects/2025_01/approval", map[string]string{"approvalStatus": "DRAFT"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportExport(t *testing.T) {
	rec := do(t, newTestRouter(t, &fakeProjects{}), http.MethodPost, "/exports/report", acmeRecord())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, common.ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, pdf.WarningFontFallback, rec.Header().Get(common.HeaderReportWarning))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestReportExport_InvalidEnum(t *testing.T) {
	body := `{"companyName":"Acme Co","shiftType":"night"}`
	rec := do(t, newTestRouter(t, &fakeProjects{}), http.MethodPost, "/exports/report", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func openWorkbook(t *testing.T, rec *httptest.ResponseRecorder) *excelize.File {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, common.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(planSheet, axis)
	require.NoError(t, err)
	return v
}

func TestPlanExport(t *testing.T) {
	payload := map[string]any{
		"record":         acmeRecord(),
		"goals":          map[string]string{"shortTerm": "完成過勞預防計畫"},
		"approvalStatus": "APPROVED",
	}
	f := openWorkbook(t, do(t, newTestRouter(t, &fakeProjects{}), http.MethodPost, "/exports/plan", payload))

	assert.Equal(t, "年度勞工健康服務執行計畫書", cell(t, f, "A1"))
	assert.Equal(t, "事業單位：Acme Co   |   年度：2025   |   製表日期：2025/3/9", cell(t, f, "A2"))
	assert.Equal(t, "完成過勞預防計畫", cell(t, f, "B5"))
	assert.Equal(t, "✅ 已核准", cell(t, f, "J19"))
}

func TestStoredPlanExport_UsesStoredApprovalAndTasks(t *testing.T) {
	projects := &fakeProjects{project: &application.Project{
		Assessment: acmeRecord(),
		Planning: application.Planning{
			ApprovalStatus: domain.ApprovalDraft,
			Tasks: []domain.Task{
				{Category: domain.CategoryRoutine, Name: "stored task", Months: domain.AllMonths()},
			},
		},
	}}
	router := newTestRouter(t, projects)

	f := openWorkbook(t, do(t, router, http.MethodGet, "/companies/demo/projects/2025_01/exports/plan?longTerm=%E5%81%A5%E5%BA%B7%E8%81%B7%E5%A0%B4", nil))

	assert.Equal(t, "年度勞工健康服務執行計畫書 (草稿/待審核)", cell(t, f, "A1"))
	assert.Equal(t, "健康職場", cell(t, f, "B7"))
	assert.Equal(t, "stored task", cell(t, f, "B11"))
	assert.Equal(t, "⏳ 待審核", cell(t, f, "J14"))
}

func TestStoredReportExport(t *testing.T) {
	projects := &fakeProjects{}
	router := newTestRouter(t, projects)

	rec := do(t, router, http.MethodGet, "/companies/demo/projects/2025_01/exports/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	projects.project = &application.Project{Assessment: acmeRecord()}
	rec = do(t, router, http.MethodGet, "/companies/demo/projects/2025_01/exports/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
