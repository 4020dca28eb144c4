package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	"github.com/amatsuk/civicforum/backend/internal/pkg/validate"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidAction = errors.New("action is not applicable to this content type")
	ErrNotFound      = errors.New("content item not found")
)

type ContentStore interface {
	GetByID(ctx context.Context, contentID int64) (pgrepo.ContentRecord, error)
	SetStatus(ctx context.Context, tx pgx.Tx, contentID int64, status string) error
	RecordFlag(ctx context.Context, tx pgx.Tx, contentID int64, reason string) error
	ClearFlagged(ctx context.Context, tx pgx.Tx, contentID int64) error
	MarkSensitive(ctx context.Context, tx pgx.Tx, contentID int64, sensitiveType string) error
	SetHidden(ctx context.Context, tx pgx.Tx, contentID int64) error
	SetDeleted(ctx context.Context, tx pgx.Tx, contentID int64) error
	ListFlagged(ctx context.Context) ([]pgrepo.ContentRecord, error)
	CollectStats(ctx context.Context) (pgrepo.ContentStatsRecord, error)
}

type FlagStore interface {
	Append(ctx context.Context, tx pgx.Tx, contentID, reporterID int64, reason string) (pgrepo.FlagEventRecord, error)
	ListByContent(ctx context.Context, contentID int64) ([]pgrepo.FlagEventRecord, error)
	CountByContent(ctx context.Context, contentID int64) (int, error)
	LastReason(ctx context.Context, contentID int64) (string, error)
}

type AuditStore interface {
	Append(ctx context.Context, tx pgx.Tx, contentID int64, action string, actorID int64, note string) error
	ListByContent(ctx context.Context, contentID int64) ([]pgrepo.ModerationAuditRecord, error)
}

type RestrictionCounter interface {
	CountActive(ctx context.Context, now time.Time) (int, error)
}

type StatsCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type Dependencies struct {
	Pool         *pgxpool.Pool
	Content      ContentStore
	Flags        FlagStore
	Audit        AuditStore
	Restrictions RestrictionCounter
	StatsCache   StatsCache
}

type Config struct {
	StatsCacheTTL time.Duration
}

type Service struct {
	pool         *pgxpool.Pool
	content      ContentStore
	flags        FlagStore
	audit        AuditStore
	restrictions RestrictionCounter
	statsCache   StatsCache
	cacheTTL     time.Duration
	now          func() time.Time
	runTx        func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type ActionInput struct {
	ContentID            int64
	Action               enums.ModerationAction
	Note                 string
	SensitiveContentType *enums.SensitiveContentType
	ActorID              int64
}

type ContentState struct {
	ID                   int64
	Kind                 string
	TopicID              *int64
	Status               string
	IsFlagged            bool
	HasSensitiveContent  bool
	SensitiveContentType *string
	FlagCount            int
	LastFlagReason       *string
	IsHidden             bool
	IsDeleted            bool
	UpdatedAt            time.Time
}

type FlaggedContent struct {
	Topics []ContentState
	Posts  []ContentState
}

type Stats struct {
	TotalTopics           int `json:"total_topics"`
	FlaggedTopics         int `json:"flagged_topics"`
	FlaggedPosts          int `json:"flagged_posts"`
	ActiveRestrictions    int `json:"active_restrictions"`
	SensitiveContentCount int `json:"sensitive_content_count"`
}

func NewService(deps Dependencies, cfg Config) *Service {
	ttl := cfg.StatsCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	s := &Service{
		pool:         deps.Pool,
		content:      deps.Content,
		flags:        deps.Flags,
		audit:        deps.Audit,
		restrictions: deps.Restrictions,
		statsCache:   deps.StatsCache,
		cacheTTL:     ttl,
		now:          time.Now,
	}
	s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, s.pool, fn)
	}
	return s
}

// ApplyAction validates and applies a single moderation command. The status
// write, any flag ledger change, and the audit entry commit together or not
// at all.
func (s *Service) ApplyAction(ctx context.Context, input ActionInput) (ContentState, error) {
	if s.content == nil || s.audit == nil {
		return ContentState{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if input.ContentID <= 0 || input.ActorID <= 0 {
		return ContentState{}, ErrValidation
	}

	item, err := s.content.GetByID(ctx, input.ContentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return ContentState{}, ErrNotFound
		}
		return ContentState{}, err
	}

	if input.Action.PostOnly() && item.Kind == enums.ContentKindTopic.String() {
		return ContentState{}, ErrInvalidAction
	}
	if input.Action == enums.ActionMarkSensitive && input.SensitiveContentType == nil {
		return ContentState{}, fmt.Errorf("%w: sensitive_content_type is required", ErrValidation)
	}
	if input.Action == enums.ActionFlag && !validate.Required(input.Note) {
		return ContentState{}, fmt.Errorf("%w: flag action requires a reason note", ErrValidation)
	}

	err = s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		switch input.Action {
		case enums.ActionApprove:
			if err := s.content.ClearFlagged(txCtx, tx, input.ContentID); err != nil {
				return err
			}
		case enums.ActionLock:
			if err := s.content.SetStatus(txCtx, tx, input.ContentID, enums.ContentStatusLocked.String()); err != nil {
				return err
			}
		case enums.ActionUnlock:
			if err := s.content.SetStatus(txCtx, tx, input.ContentID, enums.ContentStatusActive.String()); err != nil {
				return err
			}
		case enums.ActionArchive:
			if err := s.content.SetStatus(txCtx, tx, input.ContentID, enums.ContentStatusArchived.String()); err != nil {
				return err
			}
		case enums.ActionFlag:
			if s.flags == nil {
				return fmt.Errorf("flag store is not configured")
			}
			if _, err := s.flags.Append(txCtx, tx, input.ContentID, input.ActorID, input.Note); err != nil {
				return err
			}
			if err := s.content.RecordFlag(txCtx, tx, input.ContentID, input.Note); err != nil {
				return err
			}
		case enums.ActionMarkSensitive:
			if err := s.content.MarkSensitive(txCtx, tx, input.ContentID, input.SensitiveContentType.String()); err != nil {
				return err
			}
		case enums.ActionHide:
			if err := s.content.SetHidden(txCtx, tx, input.ContentID); err != nil {
				return err
			}
		case enums.ActionDelete:
			if err := s.content.SetDeleted(txCtx, tx, input.ContentID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unsupported action %q", ErrValidation, input.Action)
		}

		return s.audit.Append(txCtx, tx, input.ContentID, input.Action.String(), input.ActorID, input.Note)
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return ContentState{}, ErrNotFound
		}
		return ContentState{}, err
	}

	s.invalidateStats(ctx)

	updated, err := s.content.GetByID(ctx, input.ContentID)
	if err != nil {
		return ContentState{}, err
	}

	return stateFromRecord(updated), nil
}

// AddFlag appends a flag event from an end user. Deliberately not
// idempotent: every call is a new event and a stronger moderation signal.
func (s *Service) AddFlag(ctx context.Context, contentID, reporterID int64, reason string) (ContentState, error) {
	if s.content == nil || s.flags == nil || s.audit == nil {
		return ContentState{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if contentID <= 0 || reporterID <= 0 {
		return ContentState{}, ErrValidation
	}
	if !validate.Required(reason) {
		return ContentState{}, fmt.Errorf("%w: flag reason is required", ErrValidation)
	}

	if _, err := s.content.GetByID(ctx, contentID); err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return ContentState{}, ErrNotFound
		}
		return ContentState{}, err
	}

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := s.flags.Append(txCtx, tx, contentID, reporterID, reason); err != nil {
			return err
		}
		if err := s.content.RecordFlag(txCtx, tx, contentID, reason); err != nil {
			return err
		}
		return s.audit.Append(txCtx, tx, contentID, enums.ActionFlag.String(), reporterID, reason)
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return ContentState{}, ErrNotFound
		}
		return ContentState{}, err
	}

	s.invalidateStats(ctx)

	updated, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		return ContentState{}, err
	}

	return stateFromRecord(updated), nil
}

func (s *Service) FlagHistory(ctx context.Context, contentID int64) ([]pgrepo.FlagEventRecord, error) {
	if s.flags == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}
	if contentID <= 0 {
		return nil, ErrValidation
	}
	return s.flags.ListByContent(ctx, contentID)
}

func (s *Service) AuditTrail(ctx context.Context, contentID int64) ([]pgrepo.ModerationAuditRecord, error) {
	if s.audit == nil {
		return nil, fmt.Errorf("moderation service dependencies are not configured")
	}
	if contentID <= 0 {
		return nil, ErrValidation
	}
	return s.audit.ListByContent(ctx, contentID)
}

func (s *Service) GetContent(ctx context.Context, contentID int64) (ContentState, error) {
	if s.content == nil {
		return ContentState{}, fmt.Errorf("moderation service dependencies are not configured")
	}
	if contentID <= 0 {
		return ContentState{}, ErrValidation
	}

	item, err := s.content.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return ContentState{}, ErrNotFound
		}
		return ContentState{}, err
	}

	return stateFromRecord(item), nil
}

func (s *Service) ListFlagged(ctx context.Context) (FlaggedContent, error) {
	if s.content == nil {
		return FlaggedContent{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	items, err := s.content.ListFlagged(ctx)
	if err != nil {
		return FlaggedContent{}, err
	}

	result := FlaggedContent{
		Topics: make([]ContentState, 0),
		Posts:  make([]ContentState, 0),
	}
	for _, item := range items {
		state := stateFromRecord(item)
		if item.Kind == enums.ContentKindTopic.String() {
			result.Topics = append(result.Topics, state)
			continue
		}
		result.Posts = append(result.Posts, state)
	}

	return result, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.content == nil || s.restrictions == nil {
		return Stats{}, fmt.Errorf("moderation service dependencies are not configured")
	}

	if s.statsCache != nil {
		if data, err := s.statsCache.Get(ctx); err == nil {
			var cached Stats
			if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
				return cached, nil
			}
		}
	}

	contentStats, err := s.content.CollectStats(ctx)
	if err != nil {
		return Stats{}, err
	}

	activeRestrictions, err := s.restrictions.CountActive(ctx, s.now())
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalTopics:           contentStats.TotalTopics,
		FlaggedTopics:         contentStats.FlaggedTopics,
		FlaggedPosts:          contentStats.FlaggedPosts,
		ActiveRestrictions:    activeRestrictions,
		SensitiveContentCount: contentStats.SensitiveCount,
	}

	if s.statsCache != nil {
		if payload, marshalErr := json.Marshal(stats); marshalErr == nil {
			_ = s.statsCache.Set(ctx, payload, s.cacheTTL)
		}
	}

	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	_ = s.statsCache.Invalidate(ctx)
}

func stateFromRecord(record pgrepo.ContentRecord) ContentState {
	return ContentState{
		ID:                   record.ID,
		Kind:                 record.Kind,
		TopicID:              record.TopicID,
		Status:               record.Status,
		IsFlagged:            record.IsFlagged,
		HasSensitiveContent:  record.HasSensitiveContent,
		SensitiveContentType: record.SensitiveContentType,
		FlagCount:            record.FlagCount,
		LastFlagReason:       record.LastFlagReason,
		IsHidden:             record.IsHidden,
		IsDeleted:            record.IsDeleted,
		UpdatedAt:            record.UpdatedAt,
	}
}
