package checklist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
)

// decodeRecord reads a checklist record body. Unknown fields are tolerated so older form
// builds keep working.
func decodeRecord(r io.Reader, dst any) error {
	return json.NewDecoder(io.LimitReader(r, common.MaxRecordRequestBody)).Decode(dst)
}

func (h *Handler) previewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var record domain.Record
		if err := decodeRecord(r.Body, &record); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed record")
			return
		}

		tasks := h.projects.Preview(record)
		if tasks == nil {
			tasks = []domain.Task{}
		}
		common.WriteJSON(h.logger, w, http.StatusOK, taskListResponse{Items: tasks})
	}
}

func (h *Handler) assessmentSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := h.projectKey(r)
		if err != nil {
			h.writeServiceError(w, r, "save", err)
			return
		}

		var record domain.Record
		if err := decodeRecord(r.Body, &record); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed record")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		result, err := h.projects.Save(ctx, key, record)
		if err != nil {
			h.writeServiceError(w, r, "save", err)
			return
		}

		h.logger.Info("Assessment saved",
			zap.String("project", key.String()),
			zap.Int("tasksGenerated", result.TasksGenerated),
		)
		common.WriteJSON(h.logger, w, http.StatusOK, result)
	}
}

func (h *Handler) projectDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := h.projectKey(r)
		if err != nil {
			h.writeServiceError(w, r, "load", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		project, err := h.projects.Load(ctx, key)
		if err != nil {
			h.writeServiceError(w, r, "load", err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, newProjectResponse(project))
	}
}

func (h *Handler) approvalUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := h.projectKey(r)
		if err != nil {
			h.writeServiceError(w, r, "approval", err)
			return
		}

		var req approvalRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxSmallRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed request body")
			return
		}
		status, err := domain.NewApprovalStatus(req.ApprovalStatus)
		if err != nil {
			h.writeServiceError(w, r, "approval", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		if err := h.projects.SetApproval(ctx, key, status); err != nil {
			h.writeServiceError(w, r, "approval", err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, approvalResponse{ApprovalStatus: status})
	}
}
