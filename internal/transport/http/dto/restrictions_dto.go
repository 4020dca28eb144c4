package dto

import "time"

type RestrictRequest struct {
	UserID          int64  `json:"user_id"`
	RestrictionType string `json:"restriction_type"`
	Reason          string `json:"reason"`
	DurationDays    int    `json:"duration_days"`
}

type LiftRestrictionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RestrictionResponse struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	RestrictionType       string     `json:"restriction_type"`
	Reason                string     `json:"reason"`
	StartAt               time.Time  `json:"start_at"`
	EndAt                 time.Time  `json:"end_at"`
	IsActive              bool       `json:"is_active"`
	IsCurrentlyRestricted bool       `json:"is_currently_restricted"`
	LiftedAt              *time.Time `json:"lifted_at,omitempty"`
	LiftedBy              *int64     `json:"lifted_by,omitempty"`
	LiftReason            *string    `json:"lift_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type RestrictionListResponse struct {
	Items []RestrictionResponse `json:"items"`
	Total int                   `json:"total"`
}

type UserRestrictionsResponse struct {
	UserID                int64                 `json:"user_id"`
	IsCurrentlyRestricted bool                  `json:"is_currently_restricted"`
	Items                 []RestrictionResponse `json:"items"`
}
