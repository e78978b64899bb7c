// Package services – RegistrationService
//
// This file implements the RegistrationService, which drives the three-step
// client onboarding: share phone → enter surname → enter name. The step
// pointer lives in the in-memory session store; the collected profile fields
// are merged into the durable client row as soon as each one arrives, so an
// interrupted onboarding never loses what was already captured.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/domain"
	"github.com/doloni/support-bot/internal/session"
)

// ClientRepo defines the repository contract required by RegistrationService.
type ClientRepo interface {
	// UpsertClient merges non-empty fields into the client row, creating it
	// on first contact.
	UpsertClient(ctx context.Context, db *gorm.DB, telegramID int64, phone, surname, name, lang string) error

	// GetClient fetches a client by Telegram ID.
	GetClient(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.Client, error)
}

// RegistrationService manages the client profile and the onboarding state
// machine. It never decides what to say; it reports the resulting step and
// the dispatcher picks the localized prompt.
type RegistrationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the client repository used by this service.
	Repo ClientRepo
	// Sessions holds the transient per-user onboarding step.
	Sessions *session.Store
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(db *gorm.DB, r ClientRepo, s *session.Store) *RegistrationService {
	return &RegistrationService{DB: db, Repo: r, Sessions: s}
}

// Client returns the stored profile for the user, or ErrClientNotFound when
// the user has never been seen.
func (s *RegistrationService) Client(ctx context.Context, userID int64) (*domain.Client, error) {
	c, err := s.Repo.GetClient(ctx, s.DB, userID)
	if err != nil {
		return nil, ErrClientNotFound
	}
	return c, nil
}

// SetLanguage records the user's interface language. The client row is
// created on first contact if needed.
func (s *RegistrationService) SetLanguage(ctx context.Context, userID int64, lang string) error {
	return s.Repo.UpsertClient(ctx, s.DB, userID, "", "", "", lang)
}

// Begin puts the user at the start of onboarding: the next expected input is
// a shared contact.
func (s *RegistrationService) Begin(userID int64) {
	s.Sessions.SetRegistrationStep(userID, session.StepAwaitingPhone)
}

// Step returns the user's current onboarding step.
func (s *RegistrationService) Step(userID int64) session.RegistrationStep {
	return s.Sessions.RegistrationStep(userID)
}

// SubmitContact stores the shared phone number and advances to the surname
// step. The leading plus is stripped so numbers compare and render uniformly.
func (s *RegistrationService) SubmitContact(ctx context.Context, userID int64, phone string) error {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if phone == "" {
		return ErrEmptyMessage
	}
	if err := s.Repo.UpsertClient(ctx, s.DB, userID, phone, "", "", ""); err != nil {
		return err
	}
	s.Sessions.SetRegistrationStep(userID, session.StepAwaitingSurname)
	return nil
}

// SubmitText feeds a free-text answer into the onboarding machine and
// returns the step the user is on afterwards. StepNone means onboarding just
// completed (or the user was never onboarding; callers check Step first).
func (s *RegistrationService) SubmitText(ctx context.Context, userID int64, text string) (session.RegistrationStep, error) {
	text = strings.TrimSpace(text)
	step := s.Sessions.RegistrationStep(userID)
	switch step {
	case session.StepAwaitingSurname:
		if text == "" {
			return step, ErrEmptyMessage
		}
		if err := s.Repo.UpsertClient(ctx, s.DB, userID, "", text, "", ""); err != nil {
			return step, err
		}
		s.Sessions.SetRegistrationStep(userID, session.StepAwaitingName)
		return session.StepAwaitingName, nil

	case session.StepAwaitingName:
		if text == "" {
			return step, ErrEmptyMessage
		}
		if err := s.Repo.UpsertClient(ctx, s.DB, userID, "", "", text, ""); err != nil {
			return step, err
		}
		s.Sessions.ClearRegistration(userID)
		return session.StepNone, nil
	}
	return step, nil
}

// Cancel drops the user out of onboarding without touching the profile.
func (s *RegistrationService) Cancel(userID int64) {
	s.Sessions.ClearRegistration(userID)
}
