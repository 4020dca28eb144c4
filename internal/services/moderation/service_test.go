package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

type memoryStore struct {
	content map[int64]*pgrepo.ContentRecord
	events  []pgrepo.FlagEventRecord
	audit   []pgrepo.ModerationAuditRecord
	nextID  int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		content: make(map[int64]*pgrepo.ContentRecord),
		nextID:  1,
	}
}

func (m *memoryStore) addContent(kind string) int64 {
	id := m.nextID
	m.nextID++
	m.content[id] = &pgrepo.ContentRecord{
		ID:     id,
		Kind:   kind,
		Status: "active",
	}
	return id
}

func (m *memoryStore) GetByID(_ context.Context, contentID int64) (pgrepo.ContentRecord, error) {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ContentRecord{}, pgrepo.ErrContentNotFound
	}
	return *item, nil
}

func (m *memoryStore) SetStatus(_ context.Context, _ pgx.Tx, contentID int64, status string) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.Status = status
	return nil
}

func (m *memoryStore) RecordFlag(_ context.Context, _ pgx.Tx, contentID int64, reason string) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.IsFlagged = true
	item.FlagCount++
	r := reason
	item.LastFlagReason = &r
	return nil
}

func (m *memoryStore) ClearFlagged(_ context.Context, _ pgx.Tx, contentID int64) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.IsFlagged = false
	return nil
}

func (m *memoryStore) MarkSensitive(_ context.Context, _ pgx.Tx, contentID int64, sensitiveType string) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.HasSensitiveContent = true
	t := sensitiveType
	item.SensitiveContentType = &t
	return nil
}

func (m *memoryStore) SetHidden(_ context.Context, _ pgx.Tx, contentID int64) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.IsHidden = true
	return nil
}

func (m *memoryStore) SetDeleted(_ context.Context, _ pgx.Tx, contentID int64) error {
	item, ok := m.content[contentID]
	if !ok {
		return pgrepo.ErrContentNotFound
	}
	item.IsDeleted = true
	return nil
}

func (m *memoryStore) ListFlagged(_ context.Context) ([]pgrepo.ContentRecord, error) {
	flagged := make([]pgrepo.ContentRecord, 0)
	for _, item := range m.content {
		if item.IsFlagged && !item.IsDeleted {
			flagged = append(flagged, *item)
		}
	}
	return flagged, nil
}

func (m *memoryStore) CollectStats(_ context.Context) (pgrepo.ContentStatsRecord, error) {
	var stats pgrepo.ContentStatsRecord
	for _, item := range m.content {
		if item.IsDeleted {
			continue
		}
		if item.Kind == "topic" {
			stats.TotalTopics++
			if item.IsFlagged {
				stats.FlaggedTopics++
			}
		} else if item.IsFlagged {
			stats.FlaggedPosts++
		}
		if item.HasSensitiveContent {
			stats.SensitiveCount++
		}
	}
	return stats, nil
}

func (m *memoryStore) Append(_ context.Context, _ pgx.Tx, contentID, reporterID int64, reason string) (pgrepo.FlagEventRecord, error) {
	event := pgrepo.FlagEventRecord{
		ID:         int64(len(m.events) + 1),
		ContentID:  contentID,
		ReporterID: reporterID,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	m.events = append(m.events, event)
	return event, nil
}

func (m *memoryStore) ListByContent(_ context.Context, contentID int64) ([]pgrepo.FlagEventRecord, error) {
	events := make([]pgrepo.FlagEventRecord, 0)
	for _, event := range m.events {
		if event.ContentID == contentID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (m *memoryStore) CountByContent(_ context.Context, contentID int64) (int, error) {
	events, _ := m.ListByContent(context.Background(), contentID)
	return len(events), nil
}

func (m *memoryStore) LastReason(_ context.Context, contentID int64) (string, error) {
	events, _ := m.ListByContent(context.Background(), contentID)
	if len(events) == 0 {
		return "", nil
	}
	return events[len(events)-1].Reason, nil
}

type auditStore struct {
	records []pgrepo.ModerationAuditRecord
}

func (a *auditStore) Append(_ context.Context, _ pgx.Tx, contentID int64, action string, actorID int64, note string) error {
	a.records = append(a.records, pgrepo.ModerationAuditRecord{
		ID:        int64(len(a.records) + 1),
		ContentID: contentID,
		Action:    action,
		ActorID:   actorID,
		Note:      note,
		CreatedAt: time.Now(),
	})
	return nil
}

func (a *auditStore) ListByContent(_ context.Context, contentID int64) ([]pgrepo.ModerationAuditRecord, error) {
	records := make([]pgrepo.ModerationAuditRecord, 0)
	for _, record := range a.records {
		if record.ContentID == contentID {
			records = append(records, record)
		}
	}
	return records, nil
}

type restrictionCounterStub struct {
	active int
}

func (s restrictionCounterStub) CountActive(_ context.Context, _ time.Time) (int, error) {
	return s.active, nil
}

func newTestService(store *memoryStore, audit *auditStore) *Service {
	svc := NewService(Dependencies{
		Content:      store,
		Flags:        store,
		Audit:        audit,
		Restrictions: restrictionCounterStub{active: 2},
	}, Config{})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func TestAddFlagAccumulatesAndApproveKeepsHistory(t *testing.T) {
	store := newMemoryStore()
	audit := &auditStore{}
	svc := newTestService(store, audit)
	topicID := store.addContent("topic")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		state, err := svc.AddFlag(ctx, topicID, int64(100+i), "spam link")
		if err != nil {
			t.Fatalf("add flag #%d: %v", i+1, err)
		}
		if !state.IsFlagged {
			t.Fatalf("content must be flagged after flag #%d", i+1)
		}
	}

	state, err := svc.GetContent(ctx, topicID)
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if state.FlagCount != 3 {
		t.Fatalf("unexpected flag count: got %d want 3", state.FlagCount)
	}

	state, err = svc.ApplyAction(ctx, ActionInput{
		ContentID: topicID,
		Action:    enums.ActionApprove,
		Note:      "reviewed, links are fine",
		ActorID:   1,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if state.IsFlagged {
		t.Fatalf("approve must clear the aggregate flag")
	}
	if state.FlagCount != 3 {
		t.Fatalf("approve must not erase flag history: got count %d", state.FlagCount)
	}

	history, err := svc.FlagHistory(ctx, topicID)
	if err != nil {
		t.Fatalf("flag history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("unexpected history length: got %d want 3", len(history))
	}
}

func TestSameReporterFlagsAreAllRetained(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	postID := store.addContent("post")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.AddFlag(ctx, postID, 55, "duplicate account"); err != nil {
			t.Fatalf("add flag #%d: %v", i+1, err)
		}
	}

	history, err := svc.FlagHistory(ctx, postID)
	if err != nil {
		t.Fatalf("flag history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("same-reporter flags must not dedup: got %d events", len(history))
	}
}

func TestHideAndDeleteArePostOnly(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")
	postID := store.addContent("post")

	ctx := context.Background()

	if _, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionHide, ActorID: 1}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("hide on topic: expected ErrInvalidAction, got %v", err)
	}
	if _, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionDelete, ActorID: 1}); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("delete on topic: expected ErrInvalidAction, got %v", err)
	}

	state, err := svc.ApplyAction(ctx, ActionInput{ContentID: postID, Action: enums.ActionHide, ActorID: 1})
	if err != nil {
		t.Fatalf("hide on post: %v", err)
	}
	if !state.IsHidden {
		t.Fatalf("post must be hidden after hide action")
	}
}

func TestMarkSensitiveRequiresType(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")

	ctx := context.Background()

	_, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionMarkSensitive, ActorID: 1})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without type, got %v", err)
	}

	spam := enums.SensitiveSpam
	state, err := svc.ApplyAction(ctx, ActionInput{
		ContentID:            topicID,
		Action:               enums.ActionMarkSensitive,
		SensitiveContentType: &spam,
		ActorID:              1,
	})
	if err != nil {
		t.Fatalf("mark sensitive: %v", err)
	}
	if !state.HasSensitiveContent {
		t.Fatalf("has_sensitive_content must be set")
	}
	if state.SensitiveContentType == nil || *state.SensitiveContentType != "spam" {
		t.Fatalf("sensitive type must be set consistently, got %v", state.SensitiveContentType)
	}
}

func TestLockArchiveUnlockTransitions(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")

	ctx := context.Background()

	state, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionLock, ActorID: 1})
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if state.Status != "locked" {
		t.Fatalf("unexpected status after lock: %s", state.Status)
	}

	// lock is idempotent
	state, err = svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionLock, ActorID: 1})
	if err != nil {
		t.Fatalf("second lock: %v", err)
	}
	if state.Status != "locked" {
		t.Fatalf("unexpected status after second lock: %s", state.Status)
	}

	state, err = svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionArchive, ActorID: 1})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if state.Status != "archived" {
		t.Fatalf("unexpected status after archive: %s", state.Status)
	}

	// archived -> active is an allowed administrative override
	state, err = svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionUnlock, ActorID: 1})
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if state.Status != "active" {
		t.Fatalf("unexpected status after unlock: %s", state.Status)
	}
}

func TestApproveDoesNotChangeStatus(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")

	ctx := context.Background()

	if _, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionLock, ActorID: 1}); err != nil {
		t.Fatalf("lock: %v", err)
	}
	state, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionApprove, ActorID: 1})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if state.Status != "locked" {
		t.Fatalf("approve must not change status: got %s", state.Status)
	}
}

func TestFlagActionRequiresNote(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")

	if _, err := svc.ApplyAction(context.Background(), ActionInput{ContentID: topicID, Action: enums.ActionFlag, ActorID: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for flag without note, got %v", err)
	}
}

func TestActionsAreAudited(t *testing.T) {
	store := newMemoryStore()
	audit := &auditStore{}
	svc := newTestService(store, audit)
	topicID := store.addContent("topic")

	ctx := context.Background()
	if _, err := svc.ApplyAction(ctx, ActionInput{ContentID: topicID, Action: enums.ActionLock, Note: "heated thread", ActorID: 9}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	trail, err := svc.AuditTrail(ctx, topicID)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("expected one audit record, got %d", len(trail))
	}
	if trail[0].Action != "lock" || trail[0].ActorID != 9 || trail[0].Note != "heated thread" {
		t.Fatalf("unexpected audit record: %+v", trail[0])
	}
}

func TestApplyActionUnknownContent(t *testing.T) {
	svc := newTestService(newMemoryStore(), &auditStore{})

	if _, err := svc.ApplyAction(context.Background(), ActionInput{ContentID: 404, Action: enums.ActionLock, ActorID: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFlaggedSplitsTopicsAndPosts(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, &auditStore{})
	topicID := store.addContent("topic")
	postID := store.addContent("post")
	store.addContent("post") // unflagged

	ctx := context.Background()
	if _, err := svc.AddFlag(ctx, topicID, 10, "misinformation"); err != nil {
		t.Fatalf("flag topic: %v", err)
	}
	if _, err := svc.AddFlag(ctx, postID, 11, "abuse"); err != nil {
		t.Fatalf("flag post: %v", err)
	}

	flagged, err := svc.ListFlagged(ctx)
	if err != nil {
		t.Fatalf("list flagged: %v", err)
	}
	if len(flagged.Topics) != 1 || len(flagged.Posts) != 1 {
		t.Fatalf("unexpected flagged split: topics=%d posts=%d", len(flagged.Topics), len(flagged.Posts))
	}
}

type statsCacheStub struct {
	data       []byte
	sets       int
	gets       int
	invalidate int
}

func (c *statsCacheStub) Get(_ context.Context) ([]byte, error) {
	c.gets++
	if c.data == nil {
		return nil, errors.New("miss")
	}
	return c.data, nil
}

func (c *statsCacheStub) Set(_ context.Context, payload []byte, _ time.Duration) error {
	c.sets++
	c.data = payload
	return nil
}

func (c *statsCacheStub) Invalidate(_ context.Context) error {
	c.invalidate++
	c.data = nil
	return nil
}

func TestStatsUsesCacheAndInvalidatesOnWrites(t *testing.T) {
	store := newMemoryStore()
	cache := &statsCacheStub{}
	svc := NewService(Dependencies{
		Content:      store,
		Flags:        store,
		Audit:        &auditStore{},
		Restrictions: restrictionCounterStub{active: 4},
		StatsCache:   cache,
	}, Config{StatsCacheTTL: time.Minute})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}

	topicID := store.addContent("topic")
	ctx := context.Background()

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTopics != 1 || stats.ActiveRestrictions != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if cache.sets != 1 {
		t.Fatalf("expected stats to be cached, sets=%d", cache.sets)
	}

	// second read served from cache
	if _, err := svc.Stats(ctx); err != nil {
		t.Fatalf("cached stats: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cached read must not recompute, sets=%d", cache.sets)
	}

	if _, err := svc.AddFlag(ctx, topicID, 5, "spam"); err != nil {
		t.Fatalf("add flag: %v", err)
	}
	if cache.invalidate == 0 {
		t.Fatalf("writes must invalidate the stats cache")
	}

	stats, err = svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats after flag: %v", err)
	}
	if stats.FlaggedTopics != 1 {
		t.Fatalf("unexpected flagged topics count: %d", stats.FlaggedTopics)
	}
}
