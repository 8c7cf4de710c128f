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
	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

type chatThreadResponse struct {
	ContactID     uuid.UUID  `json:"contact_id"`
	Name          string     `json:"name"`
	PhoneE164     string     `json:"phone_e164"`
	OptIn         bool       `json:"opt_in"`
	LastMessage   *string    `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	LastDirection *string    `json:"last_direction"`
}

type chatMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Direction string    `json:"direction"`
	Body      *string   `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toChatMessageResponse(m storage.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:        m.ID,
		Direction: m.Direction,
		Body:      textPtr(m.Body),
		CreatedAt: m.CreatedAt.Time,
	}
}

// ListChatThreadsHandler returns conversation summaries, most recently
// active first.
func ListChatThreadsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var search pgtype.Text
		if q := r.URL.Query().Get("q"); q != "" {
			search = pgtype.Text{String: "%" + q + "%", Valid: true}
		}

		threads, err := queries.ListChatThreads(r.Context(), search)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to list chat threads")
			respondError(w, http.StatusInternalServerError, "failed to list chat threads")
			return
		}

		out := make([]chatThreadResponse, len(threads))
		for i, t := range threads {
			out[i] = chatThreadResponse{
				ContactID:     t.ContactID,
				Name:          t.Name,
				PhoneE164:     t.PhoneE164,
				OptIn:         t.OptIn,
				LastMessage:   textPtr(t.LastMessage),
				LastMessageAt: timestampPtr(t.LastMessageAt),
				LastDirection: textPtr(t.LastDirection),
			}
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GetChatThreadHandler returns one contact's conversation, oldest first.
func GetChatThreadHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid contact id")
			return
		}

		contact, err := queries.GetContactByID(r.Context(), contactID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "contact not found")
				return
			}
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to load contact")
			respondError(w, http.StatusInternalServerError, "failed to load contact")
			return
		}

		messages, err := queries.ListChatMessagesByContact(r.Context(), contactID)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("failed to list chat messages")
			respondError(w, http.StatusInternalServerError, "failed to list chat messages")
			return
		}

		out := make([]chatMessageResponse, len(messages))
		for i, m := range messages {
			out[i] = toChatMessageResponse(m)
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"contact":  toContactResponse(contact),
			"messages": out,
		})
	}
}

// SendChatMessageHandler sends a free-form text to a contact on behalf of an
// operator and records it in the conversation log. Sends are synchronous:
// operator replies are low-volume and the operator wants the provider error
// right away, so they bypass the queue.
func SendChatMessageHandler(queries storage.Querier, p provider.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		contactID, err := uuid.Parse(chi.URLParam(r, "contactID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid contact id")
			return
		}

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
			respondError(w, http.StatusBadRequest, "body is required")
			return
		}

		phone, err := queries.GetContactPhone(ctx, contactID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				respondError(w, http.StatusNotFound, "contact not found")
				return
			}
			log.Error().Err(err).Msg("failed to load contact")
			respondError(w, http.StatusInternalServerError, "failed to load contact")
			return
		}

		result, err := p.SendText(ctx, phone, req.Body)
		if err != nil {
			log.Error().Err(err).Str("contact_id", contactID.String()).Msg("operator send failed")
			respondError(w, http.StatusBadGateway, "failed to deliver message")
			return
		}

		msg, err := queries.CreateChatMessage(ctx, storage.CreateChatMessageParams{
			ContactID:         contactID,
			Direction:         "out",
			Body:              pgtype.Text{String: req.Body, Valid: true},
			ProviderMessageID: textOrNull(result.ProviderMessageID),
		})
		if err != nil {
			// Delivered but not logged; report success with a warning.
			log.Warn().Err(err).Str("contact_id", contactID.String()).Msg("failed to log outbound chat message")
			respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"message": toChatMessageResponse(msg),
		})
	}
}
