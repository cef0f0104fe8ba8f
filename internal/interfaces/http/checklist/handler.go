package checklist

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
)

const defaultRequestTimeout = 5 * time.Second

// Authenticator exchanges the consultant passphrase for a token.
type Authenticator interface {
	Login(passphrase string) (auth.Token, error)
}

// ReportComposer renders visit reports.
type ReportComposer interface {
	Compose(ctx context.Context, record domain.Record) (pdf.Result, error)
}

// Handler wires checklist HTTP endpoints to application services.
type Handler struct {
	logger   *zap.Logger
	projects application.ProjectService
	auth     Authenticator
	reports  ReportComposer
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
}

// Config provides dependencies for Handler.
type Config struct {
	Logger   *zap.Logger
	Projects application.ProjectService
	Auth     Authenticator
	Reports  ReportComposer
	// Location stamps the plan print date. Defaults to UTC.
	Location *time.Location
	// RequestTimeout bounds storage calls per request. Defaults to 5s.
	RequestTimeout time.Duration
	Now            func() time.Time
}

// NewHandler constructs the checklist HTTP handler set.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		logger:   cfg.Logger,
		projects: cfg.Projects,
		auth:     cfg.Auth,
		reports:  cfg.Reports,
		location: cfg.Location,
		timeout:  cfg.RequestTimeout,
		now:      cfg.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.location == nil {
		h.location = time.UTC
	}
	if h.timeout <= 0 {
		h.timeout = defaultRequestTimeout
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Register mounts the login route and, behind authMiddleware, every other route.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/auth/login", h.loginHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/auth/verify", h.verifyHandler())
		r.Post("/tasks/preview", h.previewHandler())
		r.Post("/exports/report", h.reportExportHandler())
		r.Post("/exports/plan", h.planExportHandler())

		r.Route("/companies/{companyID}/projects/{projectID}", func(r chi.Router) {
			r.Get("/", h.projectDetailHandler())
			r.Put("/assessment", h.assessmentSaveHandler())
			r.Patch("/approval", h.approvalUpdateHandler())
			r.Get("/exports/report", h.storedReportExportHandler())
			r.Get("/exports/plan", h.storedPlanExportHandler())
		})
	})
}

func (h *Handler) projectKey(r *http.Request) (application.ProjectKey, error) {
	return application.NewProjectKey(chi.URLParam(r, "companyID"), chi.URLParam(r, "projectID"))
}

// writeServiceError maps application and domain errors onto status codes. Unexpected errors
// are logged here and nowhere else.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrCompanyNameRequired),
		errors.Is(err, domain.ErrInvalidField),
		errors.Is(err, application.ErrInvalidProjectKey):
		common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrSubmissionInProgress):
		common.WriteError(h.logger, w, http.StatusConflict, "another save of this project is in progress")
	case errors.Is(err, application.ErrProjectNotFound):
		common.WriteError(h.logger, w, http.StatusNotFound, "project not found")
	default:
		h.logger.Error("Request failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		common.WriteError(h.logger, w, http.StatusInternalServerError, "internal error")
	}
}
