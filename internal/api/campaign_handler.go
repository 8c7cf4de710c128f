package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// linkTemplateName is the approved template used to deliver the photos link.
const linkTemplateName = "link_fotos"

type campaignResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	TemplateName string    `json:"template_name"`
	TemplateLang string    `json:"template_lang"`
	CreatedAt    time.Time `json:"created_at"`
}

func toCampaignResponse(c storage.Campaign) campaignResponse {
	return campaignResponse{
		ID:           c.ID,
		Name:         c.Name,
		TemplateName: c.TemplateName,
		TemplateLang: c.TemplateLang,
		CreatedAt:    c.CreatedAt.Time,
	}
}

// CreateCampaignHandler registers a new campaign backed by an approved
// WhatsApp template.
func CreateCampaignHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name         string `json:"name"`
			TemplateName string `json:"template_name"`
			TemplateLang string `json:"template_lang"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == "" || req.TemplateName == "" {
			respondError(w, http.StatusBadRequest, "name and template_name are required")
			return
		}
		if req.TemplateLang == "" {
			req.TemplateLang = "pt_BR"
		}

		campaign, err := queries.CreateCampaign(r.Context(), storage.CreateCampaignParams{
			Name:         req.Name,
			TemplateName: req.TemplateName,
			TemplateLang: req.TemplateLang,
		})
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to create campaign")
			respondError(w, http.StatusInternalServerError, "failed to create campaign")
			return
		}

		respondJSON(w, http.StatusCreated, toCampaignResponse(campaign))
	}
}

// ListCampaignsHandler returns all campaigns, newest first.
func ListCampaignsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaigns, err := queries.ListCampaigns(r.Context())
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to list campaigns")
			respondError(w, http.StatusInternalServerError, "failed to list campaigns")
			return
		}

		out := make([]campaignResponse, len(campaigns))
		for i, c := range campaigns {
			out[i] = toCampaignResponse(c)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// SendCampaignHandler fans the campaign out to every opted-in contact: one
// queued message per contact, delivered later by the dispatcher at its own
// pace. Enqueueing is cheap so the request returns as soon as all rows exist.
func SendCampaignHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		campaignID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid campaign id")
			return
		}

		campaign, err := queries.GetCampaignByID(ctx, campaignID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "campaign not found")
				return
			}
			log.Error().Err(err).Msg("failed to load campaign")
			respondError(w, http.StatusInternalServerError, "failed to load campaign")
			return
		}

		settings, err := queries.GetAppSettings(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load settings")
			respondError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}

		contacts, err := queries.ListOptInContacts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to list contacts")
			respondError(w, http.StatusInternalServerError, "failed to list contacts")
			return
		}

		enqueued := 0
		for _, c := range contacts {
			params, err := json.Marshal([]string{c.Name, settings.PhotosLink.String})
			if err != nil {
				log.Error().Err(err).Str("contact_id", c.ID.String()).Msg("failed to encode params")
				continue
			}
			if _, err := queries.EnqueueMessage(ctx, storage.EnqueueMessageParams{
				ContactID:    c.ID,
				CampaignID:   pgtype.UUID{Bytes: [16]byte(campaign.ID), Valid: true},
				TemplateName: campaign.TemplateName,
				TemplateLang: campaign.TemplateLang,
				Params:       params,
			}); err != nil {
				log.Error().Err(err).Str("contact_id", c.ID.String()).Msg("failed to enqueue message")
				continue
			}
			enqueued++
		}

		log.Info().
			Str("campaign_id", campaign.ID.String()).
			Int("enqueued", enqueued).
			Int("contacts", len(contacts)).
			Msg("campaign fan-out complete")

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"enqueued": enqueued,
			"contacts": len(contacts),
		})
	}
}

// SendLinkHandler enqueues the photos-link template for every opted-in
// contact. Requires the event name and photos link to be configured.
func SendLinkHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		settings, err := queries.GetAppSettings(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load settings")
			respondError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		if !settings.EventName.Valid || !settings.PhotosLink.Valid {
			respondError(w, http.StatusBadRequest, "event_name and photos_link must be configured first")
			return
		}

		contacts, err := queries.ListOptInContacts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to list contacts")
			respondError(w, http.StatusInternalServerError, "failed to list contacts")
			return
		}

		enqueued := 0
		for _, c := range contacts {
			params, err := json.Marshal([]string{c.Name, settings.EventName.String, settings.PhotosLink.String})
			if err != nil {
				log.Error().Err(err).Str("contact_id", c.ID.String()).Msg("failed to encode params")
				continue
			}
			if _, err := queries.EnqueueMessage(ctx, storage.EnqueueMessageParams{
				ContactID:    c.ID,
				TemplateName: linkTemplateName,
				TemplateLang: "pt_BR",
				Params:       params,
			}); err != nil {
				log.Error().Err(err).Str("contact_id", c.ID.String()).Msg("failed to enqueue message")
				continue
			}
			enqueued++
		}

		log.Info().Int("enqueued", enqueued).Msg("photos link fan-out complete")

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":       true,
			"enqueued": enqueued,
		})
	}
}

// QueueStatusHandler reports per-status message counts for the admin panel.
func QueueStatusHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := queries.CountMessagesByStatus(r.Context())
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to count messages")
			respondError(w, http.StatusInternalServerError, "failed to count messages")
			return
		}

		counts := map[string]int64{
			string(storage.MessageStatusQueued):     0,
			string(storage.MessageStatusProcessing): 0,
			string(storage.MessageStatusSent):       0,
			string(storage.MessageStatusFailed):     0,
		}
		for _, row := range rows {
			counts[string(row.Status)] = row.Count
		}
		respondJSON(w, http.StatusOK, counts)
	}
}
