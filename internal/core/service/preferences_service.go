package service

import (
	"context"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
)

// PreferencesService exposes per-account settings. Reads of accounts that
// never wrote preferences answer with the defaults; the record itself is
// created lazily on the first write.
type PreferencesService struct {
	prefs ports.PreferencesRepository
}

func NewPreferencesService(prefs ports.PreferencesRepository) *PreferencesService {
	return &PreferencesService{prefs: prefs}
}

func (s *PreferencesService) Get(ctx context.Context, accountID string) (*domain.Preferences, error) {
	return s.prefs.Get(ctx, accountID)
}

func (s *PreferencesService) Update(ctx context.Context, accountID string, params ports.UpdatePreferencesParams) (*domain.Preferences, error) {
	return s.prefs.Upsert(ctx, accountID, params)
}
