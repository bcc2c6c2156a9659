package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/bilyar/storefront-api/internal/domain"
)

func newTestSettingsService(t *testing.T, registry *stubRegistry) SettingsService {
	t.Helper()
	svc, err := NewSettingsService(registry)
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}
	return svc
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	svc := newTestSettingsService(t, newStubRegistry())

	settings, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings != domain.DefaultSettings() {
		t.Fatalf("settings = %#v", settings)
	}
}

func TestUpdateSettingsMergesPatch(t *testing.T) {
	registry := newStubRegistry()
	registry.settings.getFn = func(context.Context) (domain.Settings, error) {
		return domain.Settings{
			ID:                    1,
			StoreName:             "BILYAR",
			StoreEmail:            "info@bilyar.com",
			StorePhone:            "+965 1234 5678",
			Currency:              "KWD",
			FreeShippingThreshold: 90,
			DefaultShippingCost:   5,
		}, nil
	}
	var saved domain.Settings
	registry.settings.updateFn = func(_ context.Context, s domain.Settings) (domain.Settings, error) {
		saved = s
		return s, nil
	}

	svc := newTestSettingsService(t, registry)

	threshold := 75.0
	email := "orders@bilyar.com"
	updated, err := svc.UpdateSettings(context.Background(), SettingsPatch{
		FreeShippingThreshold: &threshold,
		StoreEmail:            &email,
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.FreeShippingThreshold != 75 || updated.StoreEmail != "orders@bilyar.com" {
		t.Fatalf("updated = %#v", updated)
	}
	if saved.StoreName != "BILYAR" || saved.Currency != "KWD" || saved.DefaultShippingCost != 5 {
		t.Fatalf("merge lost fields: %#v", saved)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc := newTestSettingsService(t, newStubRegistry())

	empty := ""
	negative := -1.0

	cases := []struct {
		name  string
		patch SettingsPatch
	}{
		{"empty store name", SettingsPatch{StoreName: &empty}},
		{"negative threshold", SettingsPatch{FreeShippingThreshold: &negative}},
		{"negative shipping cost", SettingsPatch{DefaultShippingCost: &negative}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateSettings(context.Background(), tc.patch); !errors.Is(err, ErrSettingsInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}
