package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bilyar/storefront-api/internal/platform/httpx"
	"github.com/bilyar/storefront-api/internal/services"
)

const maxSettingsBodySize = 64 * 1024

// SettingsHandlers exposes the global store configuration record.
type SettingsHandlers struct {
	settings services.SettingsService
}

// NewSettingsHandlers constructs a new SettingsHandlers instance.
func NewSettingsHandlers(settings services.SettingsService) *SettingsHandlers {
	return &SettingsHandlers{settings: settings}
}

// Routes registers the settings read endpoint.
func (h *SettingsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/settings", h.getSettings)
}

// AdminRoutes registers the settings write endpoint.
func (h *SettingsHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Patch("/settings", h.updateSettings)
}

func (h *SettingsHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.settings.GetSettings(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildSettingsPayload(settings))
}

type updateSettingsRequest struct {
	StoreName             *string  `json:"storeName"`
	StoreEmail            *string  `json:"storeEmail"`
	StorePhone            *string  `json:"storePhone"`
	Currency              *string  `json:"currency"`
	FreeShippingThreshold *float64 `json:"freeShippingThreshold"`
	DefaultShippingCost   *float64 `json:"defaultShippingCost"`
}

func (h *SettingsHandlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateSettingsRequest
	if !decodeBody(ctx, w, r, maxSettingsBodySize, &req) {
		return
	}

	settings, err := h.settings.UpdateSettings(ctx, services.SettingsPatch{
		StoreName:             req.StoreName,
		StoreEmail:            req.StoreEmail,
		StorePhone:            req.StorePhone,
		Currency:              req.Currency,
		FreeShippingThreshold: req.FreeShippingThreshold,
		DefaultShippingCost:   req.DefaultShippingCost,
	})
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildSettingsPayload(settings))
}

func writeSettingsError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, services.ErrSettingsInvalidInput) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("settings_error", "failed to process settings request", http.StatusInternalServerError))
}
