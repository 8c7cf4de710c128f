package api

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/phone"
	"github.com/brasilfoto/zapcast/internal/storage"
)

const defaultLeadSource = "pagina-captura"

// CreateLeadHandler captures a lead from the landing page: the contact is
// created (or re-opted-in) with its phone normalized to E.164.
func CreateLeadHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name   string `json:"name"`
			Phone  string `json:"phone"`
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" || req.Phone == "" {
			respondError(w, http.StatusBadRequest, "name and phone are required")
			return
		}

		source := req.Source
		if source == "" {
			source = defaultLeadSource
		}

		contact, err := queries.UpsertContact(r.Context(), storage.UpsertContactParams{
			Name:      req.Name,
			PhoneE164: phone.NormalizeBR(req.Phone),
			Source:    pgtype.Text{String: source, Valid: true},
		})
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to upsert lead")
			respondError(w, http.StatusInternalServerError, "failed to save lead")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"contact": toContactResponse(contact),
		})
	}
}
