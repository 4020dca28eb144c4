package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amatsuk/civicforum/backend/internal/pkg/validate"
	pgrepo "github.com/amatsuk/civicforum/backend/internal/repo/postgres"
)

var (
	ErrInvalidInput    = errors.New("invalid auth input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
)

type SessionRecord struct {
	SID    string
	UserID int64
	Role   string
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, ttl time.Duration) error
	Touch(ctx context.Context, sid string, userID int64, idleTimeout time.Duration) (string, error)
	Delete(ctx context.Context, sid string) error
}

type AdminUserStore interface {
	GetByUsername(ctx context.Context, username string) (pgrepo.AdminUserRecord, error)
}

type Service struct {
	jwt         *JWTManager
	sessions    SessionStore
	adminUsers  AdminUserStore
	idleTimeout time.Duration
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}

func NewService(jwtManager *JWTManager, sessions SessionStore, adminUsers AdminUserStore, idleTimeout time.Duration) *Service {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &Service{
		jwt:         jwtManager,
		sessions:    sessions,
		adminUsers:  adminUsers,
		idleTimeout: idleTimeout,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if s.jwt == nil || s.sessions == nil || s.adminUsers == nil {
		return LoginResult{}, fmt.Errorf("auth service dependencies are not configured")
	}
	if !validate.Required(username) || password == "" {
		return LoginResult{}, ErrInvalidInput
	}

	user, err := s.adminUsers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAdminUserNotFound) {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, fmt.Errorf("load admin user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrUnauthorized
	}

	sid := uuid.NewString()
	if err := s.sessions.Create(ctx, SessionRecord{
		SID:    sid,
		UserID: user.ID,
		Role:   user.Role,
	}, s.idleTimeout); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID, sid, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}

	return LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Identity: Identity{
			UserID: user.ID,
			SID:    sid,
			Role:   user.Role,
		},
	}, nil
}

// ValidateAccessToken checks the JWT signature and the backing session. The
// session is the revocation point: a parsed token with no live session is
// rejected, and a valid check slides the idle expiry.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	if s.jwt == nil || s.sessions == nil {
		return Identity{}, fmt.Errorf("auth service dependencies are not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	role, err := s.sessions.Touch(ctx, claims.SID, claims.UserID, s.idleTimeout)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("touch session: %w", err)
	}
	if strings.TrimSpace(role) == "" {
		role = claims.Role
	}

	return Identity{
		UserID: claims.UserID,
		SID:    claims.SID,
		Role:   role,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if s.sessions == nil {
		return fmt.Errorf("auth service dependencies are not configured")
	}
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}

	if err := s.sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
