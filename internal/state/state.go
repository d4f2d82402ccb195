// Package state holds the performer profile entered before a session and
// keeps it in step with the preference store.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/models"
)

const AppVersion = "8.4.0-REBORN"

const (
	KeyPerformerName = "t_name"
	KeyTitle         = "t_title"
	KeyLyrics        = "t_text"
	KeyAppVersion    = "app_version"
)

var (
	ErrIncompleteInput = errors.New("performer name and lyrics are required")
	ErrUnknownField    = errors.New("unknown profile field")
)

type Field string

const (
	FieldPerformerName Field = "performer_name"
	FieldTitle         Field = "title"
	FieldLyrics        Field = "lyrics"
)

var fieldKeys = map[Field]string{
	FieldPerformerName: KeyPerformerName,
	FieldTitle:         KeyTitle,
	FieldLyrics:        KeyLyrics,
}

type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// AppState owns the profile. Every update is written through to the store
// before it becomes visible.
type AppState struct {
	store PreferenceStore

	mu      sync.RWMutex
	profile models.Profile
}

func New(store PreferenceStore) *AppState {
	return &AppState{store: store}
}

// Load restores the profile from the store and records the running version.
func (s *AppState) Load(ctx context.Context) error {
	var profile models.Profile
	targets := map[string]*string{
		KeyPerformerName: &profile.PerformerName,
		KeyTitle:         &profile.Title,
		KeyLyrics:        &profile.Lyrics,
	}
	for key, dst := range targets {
		value, _, err := s.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		*dst = value
	}

	saved, _, err := s.store.Get(ctx, KeyAppVersion)
	if err != nil {
		return fmt.Errorf("failed to load app version: %w", err)
	}
	if saved != AppVersion {
		if err := s.store.Set(ctx, KeyAppVersion, AppVersion); err != nil {
			return fmt.Errorf("failed to record app version: %w", err)
		}
		logrus.WithField("previous", saved).Infof("System updated to %s", AppVersion)
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return nil
}

func (s *AppState) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *AppState) Update(ctx context.Context, field Field, value string) error {
	key, ok := fieldKeys[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", field, err)
	}

	switch field {
	case FieldPerformerName:
		s.profile.PerformerName = value
	case FieldTitle:
		s.profile.Title = value
	case FieldLyrics:
		s.profile.Lyrics = value
	}
	return nil
}

// Validate requires a performer name and lyrics; the title is optional.
func (s *AppState) Validate() error {
	return Validate(s.Profile())
}

func Validate(p models.Profile) error {
	if strings.TrimSpace(p.PerformerName) == "" || strings.TrimSpace(p.Lyrics) == "" {
		return ErrIncompleteInput
	}
	return nil
}
