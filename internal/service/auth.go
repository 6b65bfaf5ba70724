package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/repository"
)

// LoginResult is returned on successful registration or login.
type LoginResult struct {
	Token string          `json:"token"`
	User  models.SafeUser `json:"user"`
}

// AuthService handles local email/password authentication.
type AuthService interface {
	Register(ctx context.Context, email, password, username string) (*LoginResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// LockoutPolicy configures the failed-login lockout behavior.
type LockoutPolicy struct {
	Threshold int           // failed attempts before the account locks
	Duration  time.Duration // how long a locked account stays locked
}

type authService struct {
	users      repository.UserRepository
	jwtService JWTService
	bcryptCost int
	lockout    LockoutPolicy
	audit      repository.ActionLogRepository
	log        *slog.Logger
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users repository.UserRepository, jwtService JWTService, bcryptCost int, lockout LockoutPolicy, audit repository.ActionLogRepository, log *slog.Logger) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		lockout:    lockout,
		audit:      audit,
		log:        log,
	}
}

func (s *authService) Register(ctx context.Context, email, password, username string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrValidationFailed
	}
	if !PasswordMeetsPolicy(password) {
		return nil, ErrPasswordPolicy
	}
	if username != "" && !usernameIsValid(username) {
		return nil, ErrValidationFailed
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email availability: %w", err)
	}

	if username != "" {
		if _, err := s.users.FindByUsername(ctx, username); err == nil {
			return nil, ErrDuplicateUsername
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check username availability: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user := &models.User{
		Email:        email,
		PasswordHash: &hashStr,
		AuthProvider: models.ProviderLocal,
		IsActive:     true,
	}
	if username != "" {
		name := models.NormalizeUsername(username)
		user.Username = &name
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique indexes are the last line of defense against a
		// concurrent registration with the same email or username. The
		// translated error does not say which index collided, so re-query.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if user.Username != nil {
				if _, lookupErr := s.users.FindByUsername(ctx, *user.Username); lookupErr == nil {
					return nil, ErrDuplicateUsername
				}
			}
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Lockout wins over everything, including a correct password.
	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		s.registerFailedAttempt(ctx, user)
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.FailedLoginAttempts = 0
	user.AccountLockedUntil = nil
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// registerFailedAttempt bumps the counter and locks the account once the
// threshold is reached. The read-modify-write race under concurrent logins
// is tolerated; the lockout is a deterrent, not a hard boundary.
func (s *authService) registerFailedAttempt(ctx context.Context, user *models.User) {
	user.FailedLoginAttempts++
	justLocked := user.FailedLoginAttempts == s.lockout.Threshold
	if user.FailedLoginAttempts >= s.lockout.Threshold {
		until := time.Now().Add(s.lockout.Duration)
		user.AccountLockedUntil = &until
	}
	if err := s.users.Update(ctx, user); err != nil {
		// The caller already returns ErrInvalidCredentials; a lockout that
		// cannot be persisted must not be silent.
		s.log.Error("failed to persist lockout state", "user_id", user.ID, "error", err)
		return
	}
	if justLocked {
		if err := s.audit.Record(ctx, &models.ActionLog{
			UserID: &user.ID,
			Action: models.ActionAccountLockout,
			Source: "portfolio-server",
		}); err != nil {
			s.log.Warn("failed to record audit entry", "action", models.ActionAccountLockout, "error", err)
		}
	}
}

func (s *authService) issue(user *models.User) (*LoginResult, error) {
	username := ""
	if user.Username != nil {
		username = *user.Username
	}
	token, err := s.jwtService.GenerateToken(user.ID, username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, User: user.Safe()}, nil
}

// PasswordMeetsPolicy reports whether the password has at least 8
// characters including an upper-case letter, a lower-case letter, a digit
// and a symbol.
func PasswordMeetsPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// usernameIsValid enforces 3-30 alphanumeric characters.
func usernameIsValid(username string) bool {
	name := models.NormalizeUsername(username)
	if len(name) < 3 || len(name) > 30 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
