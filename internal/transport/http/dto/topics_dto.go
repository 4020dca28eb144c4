package dto

import "time"

type TopicResponse struct {
	ID                   int64     `json:"id"`
	CategoryID           *int64    `json:"category_id,omitempty"`
	AuthorID             int64     `json:"author_id"`
	Title                string    `json:"title"`
	Status               string    `json:"status"`
	HasSensitiveContent  bool      `json:"has_sensitive_content"`
	SensitiveContentType *string   `json:"sensitive_content_type,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type TopicListResponse struct {
	Items   []TopicResponse `json:"items"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}
