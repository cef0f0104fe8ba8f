package checklist

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
	"github.com/anzecare/anzeguard/api/internal/report/xlsx"
)

func (h *Handler) reportExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var record domain.Record
		if err := decodeRecord(r.Body, &record); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed record")
			return
		}
		normalized, err := record.Normalize()
		if err != nil {
			h.writeServiceError(w, r, "report", err)
			return
		}

		h.writeReport(w, r, normalized)
	}
}

func (h *Handler) planExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planExportRequest
		if err := decodeRecord(r.Body, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed request body")
			return
		}
		normalized, err := req.Record.Normalize()
		if err != nil {
			h.writeServiceError(w, r, "plan", err)
			return
		}
		approval, err := domain.NewApprovalStatus(req.ApprovalStatus)
		if err != nil {
			h.writeServiceError(w, r, "plan", err)
			return
		}

		h.writePlan(w, r, normalized, req.Goals, approval, nil)
	}
}

func (h *Handler) storedReportExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := h.projectKey(r)
		if err != nil {
			h.writeServiceError(w, r, "report", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		project, err := h.projects.Load(ctx, key)
		if err != nil {
			h.writeServiceError(w, r, "report", err)
			return
		}

		h.writeReport(w, r, project.Assessment)
	}
}

func (h *Handler) storedPlanExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := h.projectKey(r)
		if err != nil {
			h.writeServiceError(w, r, "plan", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		project, err := h.projects.Load(ctx, key)
		if err != nil {
			h.writeServiceError(w, r, "plan", err)
			return
		}

		query := r.URL.Query()
		goals := xlsx.Goals{
			ShortTerm: strings.TrimSpace(query.Get("shortTerm")),
			MidTerm:   strings.TrimSpace(query.Get("midTerm")),
			LongTerm:  strings.TrimSpace(query.Get("longTerm")),
		}

		var tasks []domain.Task
		if len(project.Planning.Tasks) > 0 {
			tasks = project.Planning.Tasks
		}
		h.writePlan(w, r, project.Assessment, goals, project.Planning.ApprovalStatus, tasks)
	}
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, record domain.Record) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.reports.Compose(ctx, record)
	if err != nil {
		h.writeServiceError(w, r, "report", err)
		return
	}

	for _, warning := range result.Warnings {
		w.Header().Add(common.HeaderReportWarning, warning)
	}
	common.WriteAttachment(h.logger, w, common.ContentTypePDF, pdf.ReportFileName(record.CompanyName), result.Data)
}

// writePlan renders the workbook; nil tasks derive them from record.
func (h *Handler) writePlan(w http.ResponseWriter, r *http.Request, record domain.Record, goals xlsx.Goals, approval domain.ApprovalStatus, tasks []domain.Task) {
	data, err := xlsx.Compose(record, goals, approval, xlsx.Options{
		Now:      h.now(),
		Location: h.location,
		Tasks:    tasks,
	})
	if err != nil {
		h.writeServiceError(w, r, "plan", err)
		return
	}

	h.logger.Debug("Plan rendered",
		zap.String("company", record.CompanyName),
		zap.String("approvalStatus", string(approval)),
		zap.Int("bytes", len(data)),
	)
	common.WriteAttachment(h.logger, w, common.ContentTypeXLSX, xlsx.PlanFileName(record.CompanyName), data)
}
