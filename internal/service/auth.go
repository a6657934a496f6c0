package service

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stayfinder/internal/hash"
	"github.com/Skotchmaster/stayfinder/internal/logging"
	"github.com/Skotchmaster/stayfinder/internal/models"
	"github.com/Skotchmaster/stayfinder/internal/repo"
	"github.com/Skotchmaster/stayfinder/internal/tokens"
	"github.com/Skotchmaster/stayfinder/internal/transport"
)

const (
	ShortSession = 24 * time.Hour
	LongSession  = 30 * 24 * time.Hour

	minPasswordLen = 8
)

type AuthService struct {
	Repo   *repo.GormRepo
	Secret []byte
	Events EventPublisher
	Clock  Clock
}

type ClientMeta struct {
	IP        string
	UserAgent string
}

type AuthResult struct {
	User         *models.User
	SessionToken string
	ExpiresAt    time.Time
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest, meta ClientMeta) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return nil, invalid("MISSING_FIELDS", "Email, password, first name and last name are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || !strings.Contains(req.Email, "@") {
		return nil, invalid("INVALID_EMAIL", "Email address is not valid")
	}
	if len(req.Password) < minPasswordLen {
		return nil, invalid("INVALID_PASSWORD", "Password must be at least 8 characters")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: pwHash,
		Role:         models.RoleRenter,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fail(ErrConflict, "USER_ALREADY_EXISTS", "User with this email already exists")
		}
		return nil, err
	}

	res, err := s.openSession(ctx, user, LongSession, meta)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUsers, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
	})
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest, meta ClientMeta) (*AuthResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, invalid("MISSING_CREDENTIALS", "Email and password are required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, fail(ErrUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	}

	ttl := ShortSession
	if req.RememberMe {
		ttl = LongSession
	}
	return s.openSession(ctx, user, ttl, meta)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, ttl time.Duration, meta ClientMeta) (*AuthResult, error) {
	exp := s.Clock.now().Add(ttl)
	issued, err := tokens.NewSessionToken(s.Secret, strconv.FormatUint(uint64(user.ID), 10), user.Role, exp)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(issued.Token),
		JTI:       issued.JTI,
		ExpiresAt: exp,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, SessionToken: issued.Token, ExpiresAt: exp}, nil
}

// Authenticate resolves a bearer token to its user and live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, fail(ErrUnauthorized, "MISSING_AUTH_TOKEN", "Authorization token is required")
	}

	claims, err := tokens.SessionClaimsFromToken(token, s.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fail(ErrUnauthorized, "SESSION_EXPIRED", "Session has expired")
		}
		return nil, nil, fail(ErrUnauthorized, "INVALID_SESSION", "Invalid session")
	}

	session, err := s.Repo.FindSessionByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(ErrUnauthorized, "INVALID_SESSION", "Invalid session")
		}
		return nil, nil, err
	}
	if session.Revoked || session.TokenHash != tokens.Sha256Hex(token) {
		return nil, nil, fail(ErrUnauthorized, "INVALID_SESSION", "Invalid session")
	}
	if !session.ExpiresAt.After(s.Clock.now()) {
		return nil, nil, fail(ErrUnauthorized, "SESSION_EXPIRED", "Session has expired")
	}

	user, err := s.Repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(ErrNotFound, "USER_NOT_FOUND", "User not found")
		}
		return nil, nil, err
	}
	return user, session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Repo.RevokeSession(ctx, tokens.Sha256Hex(token), s.Clock.now())
}
