package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"finance-dashboard/internal/currency"
	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/apierror"
)

type preferenceStore interface {
	Get(ctx context.Context, userID string) (model.Preferences, error)
	Upsert(ctx context.Context, p model.Preferences) error
}

type PreferenceService struct {
	store     preferenceStore
	formatter *currency.Formatter
	bus       event.Publisher
}

func NewPreferenceService(store preferenceStore, formatter *currency.Formatter, bus event.Publisher) *PreferenceService {
	return &PreferenceService{store: store, formatter: formatter, bus: bus}
}

// Get returns the user's saved preferences, or the configured defaults when
// nothing has been saved yet.
func (s *PreferenceService) Get(ctx context.Context, userID string) (model.Preferences, error) {
	prefs, err := s.store.Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Preferences{
			UserID:   userID,
			Currency: s.formatter.DefaultCurrency(),
			Locale:   s.formatter.DefaultLocale(),
		}, nil
	}
	if err != nil {
		return model.Preferences{}, err
	}
	return prefs, nil
}

func (s *PreferenceService) Update(ctx context.Context, userID string, req model.UpdatePreferencesRequest) (model.Preferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return model.Preferences{}, err
	}

	if code := strings.ToUpper(strings.TrimSpace(req.Currency)); code != "" {
		if !currency.Valid(code) {
			return model.Preferences{}, apierror.BadRequest("unknown currency", req.Currency)
		}
		current.Currency = code
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		if !currency.ValidLocale(locale) {
			return model.Preferences{}, apierror.BadRequest("invalid locale", req.Locale)
		}
		current.Locale = currency.NormalizeLocale(locale)
	}

	current.UserID = userID
	current.UpdatedAt = time.Now().UTC()
	if err := s.store.Upsert(ctx, current); err != nil {
		return model.Preferences{}, err
	}

	if s.bus != nil {
		s.bus.Emit(ctx, event.TypePreferencesUpdated, current, userID)
	}
	return current, nil
}
