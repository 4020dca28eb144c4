package restrictions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

type memoryRestrictionStore struct {
	records map[int64]*pgrepo.RestrictionRecord
	nextID  int64
}

func newMemoryRestrictionStore() *memoryRestrictionStore {
	return &memoryRestrictionStore{
		records: make(map[int64]*pgrepo.RestrictionRecord),
		nextID:  1,
	}
}

func (m *memoryRestrictionStore) Create(_ context.Context, userID int64, restrictionType, reason string, startAt, endAt time.Time) (pgrepo.RestrictionRecord, error) {
	record := pgrepo.RestrictionRecord{
		ID:              m.nextID,
		UserID:          userID,
		RestrictionType: restrictionType,
		Reason:          reason,
		StartAt:         startAt,
		EndAt:           endAt,
		IsActive:        true,
		CreatedAt:       startAt,
		UpdatedAt:       startAt,
	}
	m.nextID++
	m.records[record.ID] = &record
	return record, nil
}

func (m *memoryRestrictionStore) GetByID(_ context.Context, restrictionID int64) (pgrepo.RestrictionRecord, error) {
	record, ok := m.records[restrictionID]
	if !ok {
		return pgrepo.RestrictionRecord{}, pgrepo.ErrRestrictionNotFound
	}
	return *record, nil
}

func (m *memoryRestrictionStore) Lift(_ context.Context, restrictionID, liftedBy int64, liftReason string, now time.Time) (pgrepo.RestrictionRecord, error) {
	record, ok := m.records[restrictionID]
	if !ok {
		return pgrepo.RestrictionRecord{}, pgrepo.ErrRestrictionNotFound
	}
	if !record.IsActive || !record.EndAt.After(now) {
		return pgrepo.RestrictionRecord{}, pgrepo.ErrRestrictionInactive
	}
	record.IsActive = false
	at := now
	record.LiftedAt = &at
	record.LiftedBy = &liftedBy
	if liftReason != "" {
		record.LiftReason = &liftReason
	}
	record.UpdatedAt = now
	return *record, nil
}

func (m *memoryRestrictionStore) List(_ context.Context, offset, limit int, activeOnly bool, now time.Time) ([]pgrepo.RestrictionRecord, int, error) {
	all := make([]pgrepo.RestrictionRecord, 0)
	for id := int64(1); id < m.nextID; id++ {
		record, ok := m.records[id]
		if !ok {
			continue
		}
		if activeOnly && (!record.IsActive || !record.EndAt.After(now)) {
			continue
		}
		all = append(all, *record)
	}
	total := len(all)
	if offset >= len(all) {
		return []pgrepo.RestrictionRecord{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memoryRestrictionStore) ListByUser(_ context.Context, userID int64) ([]pgrepo.RestrictionRecord, error) {
	items := make([]pgrepo.RestrictionRecord, 0)
	for id := int64(1); id < m.nextID; id++ {
		record, ok := m.records[id]
		if !ok || record.UserID != userID {
			continue
		}
		items = append(items, *record)
	}
	return items, nil
}

func newTestService(store *memoryRestrictionStore, now time.Time) *Service {
	svc := NewService(Dependencies{Restrictions: store})
	svc.now = func() time.Time { return now }
	return svc
}

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestRestrictComputesEndDate(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)

	restriction, err := svc.Restrict(context.Background(), RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "repeated abuse",
		DurationDays:    7,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}

	wantEnd := baseTime.Add(7 * 24 * time.Hour)
	if !restriction.EndAt.Equal(wantEnd) {
		t.Fatalf("unexpected end date: got %v want %v", restriction.EndAt, wantEnd)
	}
	if !restriction.IsActive || !restriction.IsCurrentlyRestricted {
		t.Fatalf("fresh restriction must be active and in force: %+v", restriction)
	}
}

func TestRestrictDurationBounds(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	base := RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionPostRestriction,
		Reason:          "spam",
		IssuedBy:        1,
	}

	for _, days := range []int{0, -1, 366} {
		input := base
		input.DurationDays = days
		if _, err := svc.Restrict(ctx, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("duration %d: expected ErrValidation, got %v", days, err)
		}
	}
	for _, days := range []int{1, 365} {
		input := base
		input.DurationDays = days
		if _, err := svc.Restrict(ctx, input); err != nil {
			t.Fatalf("duration %d: unexpected error %v", days, err)
		}
	}
}

func TestRestrictRequiresReason(t *testing.T) {
	svc := newTestService(newMemoryRestrictionStore(), baseTime)

	_, err := svc.Restrict(context.Background(), RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "   ",
		DurationDays:    3,
		IssuedBy:        1,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank reason, got %v", err)
	}
}

func TestRestrictionExpiresByClock(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	created, err := svc.Restrict(ctx, RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionCommentRestriction,
		Reason:          "toxic comments",
		DurationDays:    7,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}

	// eight days later the window has passed but is_active is untouched
	svc.now = func() time.Time { return baseTime.Add(8 * 24 * time.Hour) }

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsActive {
		t.Fatalf("expiry must not flip the stored active flag")
	}
	if got.IsCurrentlyRestricted {
		t.Fatalf("expired restriction must not be in force")
	}

	restricted, err := svc.IsCurrentlyRestricted(ctx, 42)
	if err != nil {
		t.Fatalf("is currently restricted: %v", err)
	}
	if restricted {
		t.Fatalf("user must not be restricted after expiry")
	}
}

func TestRestrictionBoundaryAtEndInstant(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	created, err := svc.Restrict(ctx, RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionFullRestriction,
		Reason:          "ban evasion",
		DurationDays:    1,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}

	svc.now = func() time.Time { return created.EndAt.Add(-time.Second) }
	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get before end: %v", err)
	}
	if !got.IsCurrentlyRestricted {
		t.Fatalf("restriction must be in force just before end_at")
	}

	// end_at itself is exclusive
	svc.now = func() time.Time { return created.EndAt }
	got, err = svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get at end: %v", err)
	}
	if got.IsCurrentlyRestricted {
		t.Fatalf("restriction must not be in force at end_at")
	}
}

func TestLift(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	created, err := svc.Restrict(ctx, RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "harassment",
		DurationDays:    30,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}

	lifted, err := svc.Lift(ctx, created.ID, 7, "appeal accepted")
	if err != nil {
		t.Fatalf("lift: %v", err)
	}
	if lifted.IsActive || lifted.IsCurrentlyRestricted {
		t.Fatalf("lifted restriction must be inactive: %+v", lifted)
	}
	if lifted.LiftedBy == nil || *lifted.LiftedBy != 7 {
		t.Fatalf("lifted_by not recorded: %+v", lifted.LiftedBy)
	}
	if lifted.LiftReason == nil || *lifted.LiftReason != "appeal accepted" {
		t.Fatalf("lift_reason not recorded: %+v", lifted.LiftReason)
	}

	// second lift hits the already-inactive row
	if _, err := svc.Lift(ctx, created.ID, 7, "again"); !errors.Is(err, ErrAlreadyInactive) {
		t.Fatalf("expected ErrAlreadyInactive, got %v", err)
	}
}

func TestLiftExpiredRestriction(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	created, err := svc.Restrict(ctx, RestrictInput{
		UserID:          42,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "harassment",
		DurationDays:    2,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}

	svc.now = func() time.Time { return baseTime.Add(3 * 24 * time.Hour) }
	if _, err := svc.Lift(ctx, created.ID, 7, ""); !errors.Is(err, ErrAlreadyInactive) {
		t.Fatalf("expected ErrAlreadyInactive for expired restriction, got %v", err)
	}
}

func TestLiftUnknownRestriction(t *testing.T) {
	svc := newTestService(newMemoryRestrictionStore(), baseTime)

	if _, err := svc.Lift(context.Background(), 404, 7, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOverlappingRestrictionsCoexist(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	for _, rt := range []enums.RestrictionType{enums.RestrictionPostRestriction, enums.RestrictionCommentRestriction} {
		if _, err := svc.Restrict(ctx, RestrictInput{
			UserID:          42,
			RestrictionType: rt,
			Reason:          "escalating behavior",
			DurationDays:    14,
			IssuedBy:        1,
		}); err != nil {
			t.Fatalf("restrict %s: %v", rt, err)
		}
	}

	items, err := svc.ListByUser(ctx, 42)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both restrictions to coexist, got %d", len(items))
	}

	restricted, err := svc.IsCurrentlyRestricted(ctx, 42)
	if err != nil {
		t.Fatalf("is currently restricted: %v", err)
	}
	if !restricted {
		t.Fatalf("user with active restrictions must be restricted")
	}
}

func TestListActiveOnly(t *testing.T) {
	store := newMemoryRestrictionStore()
	svc := newTestService(store, baseTime)
	ctx := context.Background()

	first, err := svc.Restrict(ctx, RestrictInput{
		UserID:          1,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "spam",
		DurationDays:    10,
		IssuedBy:        1,
	})
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if _, err := svc.Restrict(ctx, RestrictInput{
		UserID:          2,
		RestrictionType: enums.RestrictionForumBan,
		Reason:          "spam",
		DurationDays:    10,
		IssuedBy:        1,
	}); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if _, err := svc.Lift(ctx, first.ID, 1, "mistake"); err != nil {
		t.Fatalf("lift: %v", err)
	}

	active, total, err := svc.List(ctx, ListParams{Limit: 10, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if total != 1 || len(active) != 1 {
		t.Fatalf("unexpected active listing: total=%d len=%d", total, len(active))
	}
	if active[0].UserID != 2 {
		t.Fatalf("wrong restriction listed: %+v", active[0])
	}

	all, total, err := svc.List(ctx, ListParams{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("unexpected full listing: total=%d len=%d", total, len(all))
	}
}
