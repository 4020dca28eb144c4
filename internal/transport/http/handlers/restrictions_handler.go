package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
	restrsvc "github.com/amatsuk/civicforum/backend/internal/services/restrictions"
	"github.com/amatsuk/civicforum/backend/internal/transport/http/dto"
	httperrors "github.com/amatsuk/civicforum/backend/internal/transport/http/errors"
)

type RestrictionsHandler struct {
	service         *restrsvc.Service
	defaultPageSize int
	maxPageSize     int
}

func NewRestrictionsHandler(service *restrsvc.Service, defaultPageSize, maxPageSize int) *RestrictionsHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &RestrictionsHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (h *RestrictionsHandler) Restrict(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "RESTRICTIONS_SERVICE_UNAVAILABLE", "restrictions service is unavailable")
		return
	}

	var req dto.RestrictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	restrictionType, err := enums.ParseRestrictionType(req.RestrictionType)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unknown restriction type")
		return
	}

	restriction, err := h.service.Restrict(r.Context(), restrsvc.RestrictInput{
		UserID:          req.UserID,
		RestrictionType: restrictionType,
		Reason:          req.Reason,
		DurationDays:    req.DurationDays,
		IssuedBy:        identity.UserID,
	})
	if err != nil {
		writeRestrictionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, mapRestriction(restriction))
}

func (h *RestrictionsHandler) Lift(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "RESTRICTIONS_SERVICE_UNAVAILABLE", "restrictions service is unavailable")
		return
	}

	restrictionID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid restriction id")
		return
	}

	var req dto.LiftRestrictionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	restriction, err := h.service.Lift(r.Context(), restrictionID, identity.UserID, req.Reason)
	if err != nil {
		writeRestrictionError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapRestriction(restriction))
}

func (h *RestrictionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "RESTRICTIONS_SERVICE_UNAVAILABLE", "restrictions service is unavailable")
		return
	}

	page := intQueryParam(r, "page")
	if page <= 0 {
		page = 1
	}
	perPage := intQueryParam(r, "per_page")
	if perPage <= 0 {
		perPage = h.defaultPageSize
	}
	if perPage > h.maxPageSize {
		perPage = h.maxPageSize
	}
	activeOnly := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")

	items, total, err := h.service.List(r.Context(), restrsvc.ListParams{
		Offset:     (page - 1) * perPage,
		Limit:      perPage,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		writeRestrictionError(w, err)
		return
	}

	response := dto.RestrictionListResponse{
		Items: make([]dto.RestrictionResponse, 0, len(items)),
		Total: total,
	}
	for _, restriction := range items {
		response.Items = append(response.Items, mapRestriction(restriction))
	}

	httperrors.Write(w, http.StatusOK, response)
}

func (h *RestrictionsHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "RESTRICTIONS_SERVICE_UNAVAILABLE", "restrictions service is unavailable")
		return
	}

	userID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	items, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		writeRestrictionError(w, err)
		return
	}

	response := dto.UserRestrictionsResponse{
		UserID: userID,
		Items:  make([]dto.RestrictionResponse, 0, len(items)),
	}
	for _, restriction := range items {
		if restriction.IsCurrentlyRestricted {
			response.IsCurrentlyRestricted = true
		}
		response.Items = append(response.Items, mapRestriction(restriction))
	}

	httperrors.Write(w, http.StatusOK, response)
}

func writeRestrictionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, restrsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid restriction request")
	case errors.Is(err, restrsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "restriction not found")
	case errors.Is(err, restrsvc.ErrAlreadyInactive):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_INACTIVE",
			Message: "restriction is already inactive",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process restriction request")
	}
}

func mapRestriction(restriction restrsvc.Restriction) dto.RestrictionResponse {
	return dto.RestrictionResponse{
		ID:                    restriction.ID,
		UserID:                restriction.UserID,
		RestrictionType:       restriction.RestrictionType,
		Reason:                restriction.Reason,
		StartAt:               restriction.StartAt,
		EndAt:                 restriction.EndAt,
		IsActive:              restriction.IsActive,
		IsCurrentlyRestricted: restriction.IsCurrentlyRestricted,
		LiftedAt:              restriction.LiftedAt,
		LiftedBy:              restriction.LiftedBy,
		LiftReason:            restriction.LiftReason,
		CreatedAt:             restriction.CreatedAt,
	}
}
