package api

import (
	"encoding/json"
	"net/http"

	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// settingsResponse is the JSON shape of the app settings.
type settingsResponse struct {
	EventName  *string `json:"event_name"`
	CouponCode *string `json:"coupon_code"`
	PhotosLink *string `json:"photos_link"`
}

func toSettingsResponse(s storage.AppSettings) settingsResponse {
	return settingsResponse{
		EventName:  textPtr(s.EventName),
		CouponCode: textPtr(s.CouponCode),
		PhotosLink: textPtr(s.PhotosLink),
	}
}

// GetSettingsHandler returns the singleton app settings.
func GetSettingsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := queries.GetAppSettings(r.Context())
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to load settings")
			respondError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		respondJSON(w, http.StatusOK, toSettingsResponse(settings))
	}
}

// UpdateSettingsHandler replaces the singleton app settings.
func UpdateSettingsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EventName  string `json:"event_name"`
			CouponCode string `json:"coupon_code"`
			PhotosLink string `json:"photos_link"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		settings, err := queries.UpdateAppSettings(r.Context(), storage.UpdateAppSettingsParams{
			EventName:  textOrNull(req.EventName),
			CouponCode: textOrNull(req.CouponCode),
			PhotosLink: textOrNull(req.PhotosLink),
		})
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to update settings")
			respondError(w, http.StatusInternalServerError, "failed to update settings")
			return
		}
		respondJSON(w, http.StatusOK, toSettingsResponse(settings))
	}
}
