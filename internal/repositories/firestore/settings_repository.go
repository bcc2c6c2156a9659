package firestore

import (
	"context"
	"errors"

	"github.com/bilyar/storefront-api/internal/domain"
	pfirestore "github.com/bilyar/storefront-api/internal/platform/firestore"
	"github.com/bilyar/storefront-api/internal/repositories"
)

const (
	settingsCollection = "settings"
	settingsDocumentID = "store"
)

type settingsDocument struct {
	StoreName             string  `firestore:"storeName"`
	StoreEmail            string  `firestore:"storeEmail"`
	StorePhone            string  `firestore:"storePhone"`
	Currency              string  `firestore:"currency"`
	FreeShippingThreshold float64 `firestore:"freeShippingThreshold"`
	DefaultShippingCost   float64 `firestore:"defaultShippingCost"`
}

// SettingsRepository persists the single store settings document.
type SettingsRepository struct {
	base *pfirestore.BaseRepository[settingsDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[settingsDocument](provider, settingsCollection)
	return &SettingsRepository{base: base}, nil
}

// Get returns the stored settings, falling back to defaults when the document
// has never been written.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	if r == nil || r.base == nil {
		return domain.Settings{}, errors.New("settings repository not initialised")
	}
	doc, err := r.base.Get(ctx, settingsDocumentID)
	if err != nil {
		if notFound(err) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}
	return decodeSettingsDocument(doc.Data), nil
}

// Update upserts the settings document and returns the stored value.
func (r *SettingsRepository) Update(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if r == nil || r.base == nil {
		return domain.Settings{}, errors.New("settings repository not initialised")
	}
	settings.ID = 1
	if err := r.base.Set(ctx, settingsDocumentID, encodeSettingsDocument(settings)); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func encodeSettingsDocument(settings domain.Settings) settingsDocument {
	return settingsDocument{
		StoreName:             settings.StoreName,
		StoreEmail:            settings.StoreEmail,
		StorePhone:            settings.StorePhone,
		Currency:              settings.Currency,
		FreeShippingThreshold: settings.FreeShippingThreshold,
		DefaultShippingCost:   settings.DefaultShippingCost,
	}
}

func decodeSettingsDocument(doc settingsDocument) domain.Settings {
	return domain.Settings{
		ID:                    1,
		StoreName:             doc.StoreName,
		StoreEmail:            doc.StoreEmail,
		StorePhone:            doc.StorePhone,
		Currency:              doc.Currency,
		FreeShippingThreshold: doc.FreeShippingThreshold,
		DefaultShippingCost:   doc.DefaultShippingCost,
	}
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)
