package topics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amatsuk/civicforum/backend/internal/domain/enums"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("topic not found")
)

type TopicStore interface {
	GetByID(ctx context.Context, contentID int64) (pgrepo.ContentRecord, error)
	ListTopics(ctx context.Context, params pgrepo.ListTopicsParams) ([]pgrepo.ContentRecord, int, error)
}

type Dependencies struct {
	Topics TopicStore
}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

type ListInput struct {
	Page       int
	PerPage    int
	CategoryID *int64
	Status     string
}

// Topic is the reader-facing view. Hidden and deleted entries never reach it.
type Topic struct {
	ID                   int64
	CategoryID           *int64
	AuthorID             int64
	Title                string
	Status               string
	HasSensitiveContent  bool
	SensitiveContentType *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Page struct {
	Items   []Topic
	Total   int
	Page    int
	PerPage int
}

type Service struct {
	topics          TopicStore
	defaultPageSize int
	maxPageSize     int
}

func NewService(deps Dependencies, cfg Config) *Service {
	defaultSize := cfg.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = 20
	}
	maxSize := cfg.MaxPageSize
	if maxSize <= 0 {
		maxSize = 100
	}

	return &Service{
		topics:          deps.Topics,
		defaultPageSize: defaultSize,
		maxPageSize:     maxSize,
	}
}

func (s *Service) List(ctx context.Context, input ListInput) (Page, error) {
	if s.topics == nil {
		return Page{}, fmt.Errorf("topic store is not configured")
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = s.defaultPageSize
	}
	if perPage > s.maxPageSize {
		perPage = s.maxPageSize
	}

	params := pgrepo.ListTopicsParams{
		Offset:     (page - 1) * perPage,
		Limit:      perPage,
		CategoryID: input.CategoryID,
	}
	if trimmed := strings.TrimSpace(input.Status); trimmed != "" {
		status, err := enums.ParseContentStatus(trimmed)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		value := status.String()
		params.Status = &value
	}

	records, total, err := s.topics.ListTopics(ctx, params)
	if err != nil {
		return Page{}, err
	}

	items := make([]Topic, 0, len(records))
	for _, record := range records {
		if record.IsHidden {
			continue
		}
		items = append(items, topicFromRecord(record))
	}

	return Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *Service) Get(ctx context.Context, topicID int64) (Topic, error) {
	if s.topics == nil {
		return Topic{}, fmt.Errorf("topic store is not configured")
	}
	if topicID <= 0 {
		return Topic{}, ErrValidation
	}

	record, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrContentNotFound) {
			return Topic{}, ErrNotFound
		}
		return Topic{}, err
	}
	if record.Kind != enums.ContentKindTopic.String() || record.IsDeleted || record.IsHidden {
		return Topic{}, ErrNotFound
	}

	return topicFromRecord(record), nil
}

func topicFromRecord(record pgrepo.ContentRecord) Topic {
	return Topic{
		ID:                   record.ID,
		CategoryID:           record.CategoryID,
		AuthorID:             record.AuthorID,
		Title:                record.Title,
		Status:               record.Status,
		HasSensitiveContent:  record.HasSensitiveContent,
		SensitiveContentType: record.SensitiveContentType,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}
