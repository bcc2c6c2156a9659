package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bilyar/storefront-api/internal/repositories"
)

// ErrSettingsInvalidInput signals the caller provided invalid data.
var ErrSettingsInvalidInput = errors.New("settings: invalid input")

// SettingsPatch holds optional store configuration overrides.
type SettingsPatch struct {
	StoreName             *string
	StoreEmail            *string
	StorePhone            *string
	Currency              *string
	FreeShippingThreshold *float64
	DefaultShippingCost   *float64
}

type settingsService struct {
	registry repositories.Registry
}

// NewSettingsService wires the repository registry into a SettingsService.
func NewSettingsService(registry repositories.Registry) (SettingsService, error) {
	if registry == nil {
		return nil, errors.New("settings service: repository registry is required")
	}
	return &settingsService{registry: registry}, nil
}

func (s *settingsService) GetSettings(ctx context.Context) (Settings, error) {
	return s.registry.Settings().Get(ctx)
}

// UpdateSettings merges the patch onto the stored record and persists it.
func (s *settingsService) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	if patch.StoreName != nil && *patch.StoreName == "" {
		return Settings{}, fmt.Errorf("%w: store name cannot be empty", ErrSettingsInvalidInput)
	}
	if patch.FreeShippingThreshold != nil && *patch.FreeShippingThreshold < 0 {
		return Settings{}, fmt.Errorf("%w: free shipping threshold cannot be negative", ErrSettingsInvalidInput)
	}
	if patch.DefaultShippingCost != nil && *patch.DefaultShippingCost < 0 {
		return Settings{}, fmt.Errorf("%w: default shipping cost cannot be negative", ErrSettingsInvalidInput)
	}

	settings, err := s.registry.Settings().Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if patch.StoreName != nil {
		settings.StoreName = *patch.StoreName
	}
	if patch.StoreEmail != nil {
		settings.StoreEmail = *patch.StoreEmail
	}
	if patch.StorePhone != nil {
		settings.StorePhone = *patch.StorePhone
	}
	if patch.Currency != nil {
		settings.Currency = *patch.Currency
	}
	if patch.FreeShippingThreshold != nil {
		settings.FreeShippingThreshold = *patch.FreeShippingThreshold
	}
	if patch.DefaultShippingCost != nil {
		settings.DefaultShippingCost = *patch.DefaultShippingCost
	}

	return s.registry.Settings().Update(ctx, settings)
}
