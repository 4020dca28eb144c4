package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	authsvc "github.com/amatsuk/civicforum/backend/internal/services/auth"
	modsvc "github.com/amatsuk/civicforum/backend/internal/services/moderation"
	"github.com/amatsuk/civicforum/backend/internal/transport/http/dto"
	httperrors "github.com/amatsuk/civicforum/backend/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	var req dto.ModerationActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	action, err := enums.ParseModerationAction(req.Action)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unknown moderation action")
		return
	}

	input := modsvc.ActionInput{
		ContentID: contentID,
		Action:    action,
		Note:      strings.TrimSpace(req.Note),
		ActorID:   identity.UserID,
	}
	if raw := strings.TrimSpace(req.SensitiveContentType); raw != "" {
		sensitiveType, err := enums.ParseSensitiveContentType(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown sensitive content type")
			return
		}
		input.SensitiveContentType = &sensitiveType
	}

	state, err := h.service.ApplyAction(r.Context(), input)
	if err != nil {
		writeModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapContentState(state))
}

func (h *ModerationHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	state, err := h.service.GetContent(r.Context(), contentID)
	if err != nil {
		writeModerationError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapContentState(state))
}

func (h *ModerationHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	flagged, err := h.service.ListFlagged(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list flagged content")
		return
	}

	response := dto.FlaggedContentResponse{
		Topics: make([]dto.ContentStateResponse, 0, len(flagged.Topics)),
		Posts:  make([]dto.ContentStateResponse, 0, len(flagged.Posts)),
	}
	for _, state := range flagged.Topics {
		response.Topics = append(response.Topics, mapContentState(state))
	}
	for _, state := range flagged.Posts {
		response.Posts = append(response.Posts, mapContentState(state))
	}

	httperrors.Write(w, http.StatusOK, response)
}

func (h *ModerationHandler) FlagHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	events, err := h.service.FlagHistory(r.Context(), contentID)
	if err != nil {
		writeModerationError(w, err)
		return
	}

	response := dto.FlagHistoryResponse{Items: make([]dto.FlagEventResponse, 0, len(events))}
	for _, event := range events {
		response.Items = append(response.Items, dto.FlagEventResponse{
			ID:         event.ID,
			ContentID:  event.ContentID,
			ReporterID: event.ReporterID,
			Reason:     event.Reason,
			CreatedAt:  event.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, response)
}

func (h *ModerationHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	contentID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid content id")
		return
	}

	entries, err := h.service.AuditTrail(r.Context(), contentID)
	if err != nil {
		writeModerationError(w, err)
		return
	}

	response := dto.AuditTrailResponse{Items: make([]dto.AuditEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		response.Items = append(response.Items, dto.AuditEntryResponse{
			ID:        entry.ID,
			ContentID: entry.ContentID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, response)
}

func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to collect moderation stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ModerationStatsResponse{
		TotalTopics:           stats.TotalTopics,
		FlaggedTopics:         stats.FlaggedTopics,
		FlaggedPosts:          stats.FlaggedPosts,
		ActiveRestrictions:    stats.ActiveRestrictions,
		SensitiveContentCount: stats.SensitiveContentCount,
	})
}

func writeModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, modsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid moderation request")
	case errors.Is(err, modsvc.ErrInvalidAction):
		writeBadRequest(w, "ACTION_NOT_ALLOWED", "action is not applicable to this content type")
	case errors.Is(err, modsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "content not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process moderation request")
	}
}

func mapContentState(state modsvc.ContentState) dto.ContentStateResponse {
	return dto.ContentStateResponse{
		ID:                   state.ID,
		Kind:                 state.Kind,
		TopicID:              state.TopicID,
		Status:               state.Status,
		IsFlagged:            state.IsFlagged,
		HasSensitiveContent:  state.HasSensitiveContent,
		SensitiveContentType: state.SensitiveContentType,
		FlagCount:            state.FlagCount,
		LastFlagReason:       state.LastFlagReason,
		IsHidden:             state.IsHidden,
		IsDeleted:            state.IsDeleted,
		UpdatedAt:            state.UpdatedAt,
	}
}
