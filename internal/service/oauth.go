package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tobyStaff/stafford.dev/internal/models"
	"github.com/tobyStaff/stafford.dev/internal/repository"
)

// GoogleProfile is the identity returned by the provider after consent.
type GoogleProfile struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
}

// OAuthOutcome tells the caller how the profile was resolved.
type OAuthOutcome int

const (
	// OutcomeExisting means the google id was already on file.
	OutcomeExisting OAuthOutcome = iota
	// OutcomeLinked means the google id was attached to a matching-email account.
	OutcomeLinked
	// OutcomeProvisioned means a brand-new account was created.
	OutcomeProvisioned
)

// OAuthService exchanges a verified provider profile for a local account.
type OAuthService interface {
	Resolve(ctx context.Context, profile GoogleProfile) (*models.SafeUser, OAuthOutcome, error)
}

type oauthService struct {
	users repository.UserRepository
}

// NewOAuthService creates a new OAuthService instance.
func NewOAuthService(users repository.UserRepository) OAuthService {
	return &oauthService{users: users}
}

// Resolve looks the profile up by google id first, then links a
// matching-email account, and only provisions a new user when neither
// exists. Linking before provisioning prevents duplicate accounts for a
// user who registered locally before their first Google sign-in.
func (s *oauthService) Resolve(ctx context.Context, profile GoogleProfile) (*models.SafeUser, OAuthOutcome, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, 0, ErrValidationFailed
	}

	user, err := s.users.FindByGoogleID(ctx, profile.ID)
	outcome := OutcomeExisting
	switch {
	case err == nil:
		// Known Google identity.
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, outcome, err = s.linkOrProvision(ctx, profile)
		if err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, 0, err
	}

	safe := user.Safe()
	return &safe, outcome, nil
}

func (s *oauthService) linkOrProvision(ctx context.Context, profile GoogleProfile) (*models.User, OAuthOutcome, error) {
	existing, err := s.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		existing.GoogleID = &profile.ID
		if existing.DisplayName == nil && profile.DisplayName != "" {
			existing.DisplayName = &profile.DisplayName
		}
		if existing.ProfilePhotoURL == nil && profile.PhotoURL != "" {
			existing.ProfilePhotoURL = &profile.PhotoURL
		}
		return existing, OutcomeLinked, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("failed to look up account for linking: %w", err)
	}

	user := &models.User{
		Email:         models.NormalizeEmail(profile.Email),
		GoogleID:      &profile.ID,
		AuthProvider:  models.ProviderGoogle,
		EmailVerified: true,
		IsActive:      true,
	}
	if profile.DisplayName != "" {
		user.DisplayName = &profile.DisplayName
	}
	if profile.PhotoURL != "" {
		user.ProfilePhotoURL = &profile.PhotoURL
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, 0, err
	}
	return user, OutcomeProvisioned, nil
}
