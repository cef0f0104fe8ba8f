package checklist

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
)

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxSmallRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "malformed request body")
			return
		}
		if strings.TrimSpace(req.Passphrase) == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "passphrase is required")
			return
		}

		token, err := h.auth.Login(req.Passphrase)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			common.WriteError(h.logger, w, http.StatusUnauthorized, "invalid passphrase")
			return
		}
		if err != nil {
			h.logger.Error("Failed to issue access token", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, token)
	}
}

func (h *Handler) verifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "authenticated user missing from context")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}
