package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
	modsvc "github.com/amatsuk/civicforum/backend/internal/services/moderation"
	ratesvc "github.com/amatsuk/civicforum/backend/internal/services/rate"
	"github.com/amatsuk/civicforum/backend/internal/transport/http/dto"
	httperrors "github.com/amatsuk/civicforum/backend/internal/transport/http/errors"
)

type FlagsHandler struct {
	moderation *modsvc.Service
	limiter    *ratesvc.Limiter
}

func NewFlagsHandler(moderation *modsvc.Service, limiter *ratesvc.Limiter) *FlagsHandler {
	return &FlagsHandler{
		moderation: moderation,
		limiter:    limiter,
	}
}

func (h *FlagsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.moderation == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.FlagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.ContentID <= 0 || strings.TrimSpace(req.Reason) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "content_id and reason are required")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowFlag(r.Context(), identity.UserID)
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "failed to check flag rate limit")
			return
		}
		if !allowed {
			until := time.Now().UTC().Add(time.Duration(retryAfter) * time.Second)
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "FLAG_RATE_LIMITED",
				Message:       "too many flags, try again later",
				RetryAfterSec: retryAfter,
				CooldownUntil: &until,
			})
			return
		}
	}

	state, err := h.moderation.AddFlag(r.Context(), req.ContentID, identity.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, modsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid flag request")
		case errors.Is(err, modsvc.ErrNotFound):
			writeNotFound(w, "NOT_FOUND", "content not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to submit flag")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FlagResponse{
		OK:        true,
		FlagCount: state.FlagCount,
	})
}
