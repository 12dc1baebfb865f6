package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"autoassist/internal/auth"
	"autoassist/internal/config"
	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/rs/zerolog"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,31}$`)

var errBadCredentials = fmt.Errorf("%w: invalid username or password", domain.ErrUnauthenticated)

type UserService struct {
	repo     domain.UserRepository
	tokens   *auth.TokenManager
	sessions domain.SessionStore
	logger   *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, tokens *auth.TokenManager, sessions domain.SessionStore, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{repo: repo, tokens: tokens, sessions: sessions, logger: logger}
}

// Register creates an account. A nil actor is public self-registration and
// may only create customers.
func (s *UserService) Register(ctx context.Context, actor *domain.Actor, reg models.Registration) (*models.User, error) {
	role := models.RoleCustomer
	if strings.TrimSpace(reg.Role) != "" {
		parsed, ok := models.ParseRole(reg.Role)
		if !ok {
			return nil, domain.Validation("unknown role %q", reg.Role)
		}
		role = parsed
	}
	if role != models.RoleCustomer {
		if actor == nil {
			return nil, domain.Authorization("only an administrator can create %s accounts", role)
		}
		if err := actor.RequireAdmin("creating " + string(role) + " accounts"); err != nil {
			return nil, err
		}
	}

	username := strings.ToLower(strings.TrimSpace(reg.Username))
	if !usernamePattern.MatchString(username) {
		return nil, domain.Validation("username must be 3-32 characters of letters, digits, dot, dash or underscore")
	}
	if len(reg.Password) < auth.MinPasswordLength {
		return nil, domain.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, domain.Validation("password cannot be used: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(reg.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(reg.Phone),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, domain.Validation("username or email is already registered")
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Str("role", string(role)).Msg("user registered")
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", domain.Validation("invalid email %q", raw)
	}
	return strings.ToLower(addr.Address), nil
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.Session, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(password, user.PasswordHash) {
		s.logger.Warn().Str("username", user.Username).Msg("failed login")
		return nil, errBadCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes the actor's token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, actor domain.Actor, expiresAt time.Time) error {
	if actor.TokenID == "" {
		return fmt.Errorf("%w: no session to end", domain.ErrUnauthenticated)
	}
	if err := s.sessions.RevokeToken(ctx, actor.TokenID, time.Until(expiresAt)); err != nil {
		return domain.Storage("revoke token", err)
	}
	s.logger.Info().Int64("user_id", actor.UserID).Msg("user logged out")
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, actor domain.Actor) (*models.User, error) {
	return s.repo.GetUserByID(ctx, actor.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, update models.ProfileUpdate) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		user.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Email != nil {
		email, err := normalizeEmail(*update.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, domain.Validation("email is already registered")
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the configured administrator when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	existing, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(cfg.AdminUsername)))
	if err == nil {
		if existing.Role != models.RoleAdministrator {
			s.logger.Warn().Str("username", existing.Username).Msg("bootstrap admin username belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	system := domain.System
	_, err = s.Register(ctx, &system, models.Registration{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Role:     string(models.RoleAdministrator),
		FullName: "Administrator",
		Email:    cfg.AdminEmail,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.Info().Str("username", cfg.AdminUsername).Msg("bootstrap administrator created")
	return nil
}
