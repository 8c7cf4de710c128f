package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// contactResponse is the JSON shape of a contact.
type contactResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	PhoneE164      string     `json:"phone_e164"`
	OptIn          bool       `json:"opt_in"`
	OptInAt        *time.Time `json:"opt_in_at"`
	CouponStatus   string     `json:"coupon_status"`
	Source         *string    `json:"source"`
	FirstInboundAt *time.Time `json:"first_inbound_at"`
	LastInboundAt  *time.Time `json:"last_inbound_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toContactResponse(c storage.Contact) contactResponse {
	return contactResponse{
		ID:             c.ID,
		Name:           c.Name,
		PhoneE164:      c.PhoneE164,
		OptIn:          c.OptIn,
		OptInAt:        timestampPtr(c.OptInAt),
		CouponStatus:   c.CouponStatus,
		Source:         textPtr(c.Source),
		FirstInboundAt: timestampPtr(c.FirstInboundAt),
		LastInboundAt:  timestampPtr(c.LastInboundAt),
		CreatedAt:      c.CreatedAt.Time,
	}
}

func toContactResponses(contacts []storage.Contact) []contactResponse {
	out := make([]contactResponse, len(contacts))
	for i, c := range contacts {
		out[i] = toContactResponse(c)
	}
	return out
}

// ListContactsHandler returns contacts filtered by opt_in, free-text search,
// and campaign membership.
func ListContactsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var optIn pgtype.Bool
		switch r.URL.Query().Get("opt_in") {
		case "true":
			optIn = pgtype.Bool{Bool: true, Valid: true}
		case "false":
			optIn = pgtype.Bool{Bool: false, Valid: true}
		}

		var search pgtype.Text
		if q := r.URL.Query().Get("q"); q != "" {
			search = pgtype.Text{String: "%" + q + "%", Valid: true}
		}

		var (
			contacts []storage.Contact
			err      error
		)
		if campaignParam := r.URL.Query().Get("campaign_id"); campaignParam != "" {
			campaignID, parseErr := uuid.Parse(campaignParam)
			if parseErr != nil {
				respondError(w, http.StatusBadRequest, "invalid campaign_id")
				return
			}
			contacts, err = queries.ListContactsByCampaign(r.Context(), storage.ListContactsByCampaignParams{
				OptIn:      optIn,
				Search:     search,
				CampaignID: campaignID,
			})
		} else {
			contacts, err = queries.ListContacts(r.Context(), storage.ListContactsParams{
				OptIn:  optIn,
				Search: search,
			})
		}
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to list contacts")
			respondError(w, http.StatusInternalServerError, "failed to list contacts")
			return
		}

		respondJSON(w, http.StatusOK, toContactResponses(contacts))
	}
}

// DeleteContactHandler removes a contact and its dependent rows.
func DeleteContactHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid contact id")
			return
		}

		if err := queries.DeleteContact(r.Context(), id); err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to delete contact")
			respondError(w, http.StatusInternalServerError, "failed to delete contact")
			return
		}

		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// ResetHandler deletes all messages and contacts. Destructive; intended for
// event teardown between jobs.
func ResetHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := queries.DeleteAllMessages(ctx); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("failed to delete messages")
			respondError(w, http.StatusInternalServerError, "failed to reset")
			return
		}
		if err := queries.DeleteAllContacts(ctx); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("failed to delete contacts")
			respondError(w, http.StatusInternalServerError, "failed to reset")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
