package restrictions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	"github.com/amatsuk/civicforum/backend/internal/domain/rules"
	"github.com/amatsuk/civicforum/backend/internal/pkg/validate"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("restriction not found")
	ErrAlreadyInactive = errors.New("restriction is already inactive")
)

type RestrictionStore interface {
	Create(ctx context.Context, userID int64, restrictionType, reason string, startAt, endAt time.Time) (pgrepo.RestrictionRecord, error)
	GetByID(ctx context.Context, restrictionID int64) (pgrepo.RestrictionRecord, error)
	Lift(ctx context.Context, restrictionID, liftedBy int64, liftReason string, now time.Time) (pgrepo.RestrictionRecord, error)
	List(ctx context.Context, offset, limit int, activeOnly bool, now time.Time) ([]pgrepo.RestrictionRecord, int, error)
	ListByUser(ctx context.Context, userID int64) ([]pgrepo.RestrictionRecord, error)
}

type Dependencies struct {
	Restrictions RestrictionStore
}

type RestrictInput struct {
	UserID          int64
	RestrictionType enums.RestrictionType
	Reason          string
	DurationDays    int
	IssuedBy        int64
}

type ListParams struct {
	Offset     int
	Limit      int
	ActiveOnly bool
}

// Restriction is the restriction record with the activity predicate already
// evaluated against the request clock.
type Restriction struct {
	ID                    int64
	UserID                int64
	RestrictionType       string
	Reason                string
	StartAt               time.Time
	EndAt                 time.Time
	IsActive              bool
	IsCurrentlyRestricted bool
	LiftedAt              *time.Time
	LiftedBy              *int64
	LiftReason            *string
	CreatedAt             time.Time
}

type Service struct {
	restrictions RestrictionStore
	now          func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		restrictions: deps.Restrictions,
		now:          time.Now,
	}
}

// Restrict places a new restriction on a user. Existing restrictions for the
// same user are left untouched; overlapping ones simply coexist.
func (s *Service) Restrict(ctx context.Context, input RestrictInput) (Restriction, error) {
	if s.restrictions == nil {
		return Restriction{}, fmt.Errorf("restriction store is not configured")
	}
	if input.UserID <= 0 || input.IssuedBy <= 0 {
		return Restriction{}, ErrValidation
	}
	if !validate.Required(input.Reason) {
		return Restriction{}, fmt.Errorf("%w: restriction reason is required", ErrValidation)
	}
	if !rules.ValidRestrictionDuration(input.DurationDays) {
		return Restriction{}, fmt.Errorf("%w: duration must be between %d and %d days",
			ErrValidation, rules.MinRestrictionDays, rules.MaxRestrictionDays)
	}
	if _, err := enums.ParseRestrictionType(input.RestrictionType.String()); err != nil {
		return Restriction{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	startAt := s.now()
	endAt := rules.RestrictionEnd(startAt, input.DurationDays)

	record, err := s.restrictions.Create(ctx, input.UserID, input.RestrictionType.String(), strings.TrimSpace(input.Reason), startAt, endAt)
	if err != nil {
		return Restriction{}, err
	}

	return s.fromRecord(record), nil
}

// Lift deactivates a restriction before its natural expiry. Lifting a
// restriction that already expired or was lifted fails with
// ErrAlreadyInactive.
func (s *Service) Lift(ctx context.Context, restrictionID, liftedBy int64, liftReason string) (Restriction, error) {
	if s.restrictions == nil {
		return Restriction{}, fmt.Errorf("restriction store is not configured")
	}
	if restrictionID <= 0 || liftedBy <= 0 {
		return Restriction{}, ErrValidation
	}

	record, err := s.restrictions.Lift(ctx, restrictionID, liftedBy, liftReason, s.now())
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrRestrictionNotFound):
			return Restriction{}, ErrNotFound
		case errors.Is(err, pgrepo.ErrRestrictionInactive):
			return Restriction{}, ErrAlreadyInactive
		}
		return Restriction{}, err
	}

	return s.fromRecord(record), nil
}

func (s *Service) Get(ctx context.Context, restrictionID int64) (Restriction, error) {
	if s.restrictions == nil {
		return Restriction{}, fmt.Errorf("restriction store is not configured")
	}
	if restrictionID <= 0 {
		return Restriction{}, ErrValidation
	}

	record, err := s.restrictions.GetByID(ctx, restrictionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRestrictionNotFound) {
			return Restriction{}, ErrNotFound
		}
		return Restriction{}, err
	}

	return s.fromRecord(record), nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Restriction, int, error) {
	if s.restrictions == nil {
		return nil, 0, fmt.Errorf("restriction store is not configured")
	}
	if params.Limit <= 0 || params.Offset < 0 {
		return nil, 0, ErrValidation
	}

	records, total, err := s.restrictions.List(ctx, params.Offset, params.Limit, params.ActiveOnly, s.now())
	if err != nil {
		return nil, 0, err
	}

	items := make([]Restriction, 0, len(records))
	for _, record := range records {
		items = append(items, s.fromRecord(record))
	}
	return items, total, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Restriction, error) {
	if s.restrictions == nil {
		return nil, fmt.Errorf("restriction store is not configured")
	}
	if userID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.restrictions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]Restriction, 0, len(records))
	for _, record := range records {
		items = append(items, s.fromRecord(record))
	}
	return items, nil
}

// IsCurrentlyRestricted reports whether the user has at least one
// restriction in force right now.
func (s *Service) IsCurrentlyRestricted(ctx context.Context, userID int64) (bool, error) {
	items, err := s.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.IsCurrentlyRestricted {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) fromRecord(record pgrepo.RestrictionRecord) Restriction {
	return Restriction{
		ID:                    record.ID,
		UserID:                record.UserID,
		RestrictionType:       record.RestrictionType,
		Reason:                record.Reason,
		StartAt:               record.StartAt,
		EndAt:                 record.EndAt,
		IsActive:              record.IsActive,
		IsCurrentlyRestricted: rules.CurrentlyRestricted(record.IsActive, record.EndAt, s.now()),
		LiftedAt:              record.LiftedAt,
		LiftedBy:              record.LiftedBy,
		LiftReason:            record.LiftReason,
		CreatedAt:             record.CreatedAt,
	}
}
