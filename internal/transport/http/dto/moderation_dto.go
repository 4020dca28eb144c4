package dto

import "time"

type ModerationActionRequest struct {
	Action               string `json:"action"`
	Note                 string `json:"note,omitempty"`
	SensitiveContentType string `json:"sensitive_content_type,omitempty"`
}

type ContentStateResponse struct {
	ID                   int64     `json:"id"`
	Kind                 string    `json:"kind"`
	TopicID              *int64    `json:"topic_id,omitempty"`
	Status               string    `json:"status"`
	IsFlagged            bool      `json:"is_flagged"`
	HasSensitiveContent  bool      `json:"has_sensitive_content"`
	SensitiveContentType *string   `json:"sensitive_content_type,omitempty"`
	FlagCount            int       `json:"flag_count"`
	LastFlagReason       *string   `json:"last_flag_reason,omitempty"`
	IsHidden             bool      `json:"is_hidden"`
	IsDeleted            bool      `json:"is_deleted"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type FlaggedContentResponse struct {
	Topics []ContentStateResponse `json:"topics"`
	Posts  []ContentStateResponse `json:"posts"`
}

type FlagEventResponse struct {
	ID         int64     `json:"id"`
	ContentID  int64     `json:"content_id"`
	ReporterID int64     `json:"reporter_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

type FlagHistoryResponse struct {
	Items []FlagEventResponse `json:"items"`
}

type AuditEntryResponse struct {
	ID        int64     `json:"id"`
	ContentID int64     `json:"content_id"`
	Action    string    `json:"action"`
	ActorID   int64     `json:"actor_id"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditTrailResponse struct {
	Items []AuditEntryResponse `json:"items"`
}

type ModerationStatsResponse struct {
	TotalTopics           int `json:"total_topics"`
	FlaggedTopics         int `json:"flagged_topics"`
	FlaggedPosts          int `json:"flagged_posts"`
	ActiveRestrictions    int `json:"active_restrictions"`
	SensitiveContentCount int `json:"sensitive_content_count"`
}
