package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	topicssvc "github.com/amatsuk/civicforum/backend/internal/services/topics"
	"github.com/amatsuk/civicforum/backend/internal/transport/http/dto"
	httperrors "github.com/amatsuk/civicforum/backend/internal/transport/http/errors"
)

type TopicsHandler struct {
	service *topicssvc.Service
}

func NewTopicsHandler(service *topicssvc.Service) *TopicsHandler {
	return &TopicsHandler{service: service}
}

func (h *TopicsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TOPICS_SERVICE_UNAVAILABLE", "topics service is unavailable")
		return
	}

	input := topicssvc.ListInput{
		Page:    intQueryParam(r, "page"),
		PerPage: intQueryParam(r, "per_page"),
		Status:  strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
			return
		}
		input.CategoryID = &categoryID
	}

	page, err := h.service.List(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, topicssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid listing parameters")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to list topics")
		}
		return
	}

	items := make([]dto.TopicResponse, 0, len(page.Items))
	for _, topic := range page.Items {
		items = append(items, mapTopic(topic))
	}

	httperrors.Write(w, http.StatusOK, dto.TopicListResponse{
		Items:   items,
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
	})
}

func (h *TopicsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "TOPICS_SERVICE_UNAVAILABLE", "topics service is unavailable")
		return
	}

	topicID, ok := idFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		return
	}

	topic, err := h.service.Get(r.Context(), topicID)
	if err != nil {
		switch {
		case errors.Is(err, topicssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid topic id")
		case errors.Is(err, topicssvc.ErrNotFound):
			writeNotFound(w, "NOT_FOUND", "topic not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load topic")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapTopic(topic))
}

func mapTopic(topic topicssvc.Topic) dto.TopicResponse {
	return dto.TopicResponse{
		ID:                   topic.ID,
		CategoryID:           topic.CategoryID,
		AuthorID:             topic.AuthorID,
		Title:                topic.Title,
		Status:               topic.Status,
		HasSensitiveContent:  topic.HasSensitiveContent,
		SensitiveContentType: topic.SensitiveContentType,
		CreatedAt:            topic.CreatedAt,
		UpdatedAt:            topic.UpdatedAt,
	}
}

func intQueryParam(r *http.Request, name string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func idFromRequest(r *http.Request) (int64, bool) {
	if r == nil {
		return 0, false
	}
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
