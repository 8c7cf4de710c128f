package api

import (
	"encoding/json"
	"net/http"

	"github.com/brasilfoto/zapcast/internal/chatbot"
	"github.com/brasilfoto/zapcast/internal/logger"
	"github.com/brasilfoto/zapcast/internal/metrics"
)

// webhookPayload mirrors the Graph webhook notification envelope, trimmed to
// the fields the bot reads.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Button struct {
						Text string `json:"text"`
					} `json:"button"`
					Interactive struct {
						ButtonReply struct {
							Title string `json:"title"`
						} `json:"button_reply"`
					} `json:"interactive"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// VerifyWebhookHandler answers the Graph subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func VerifyWebhookHandler(verifyToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == verifyToken && verifyToken != "" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(q.Get("hub.challenge")))
			return
		}
		respondError(w, http.StatusForbidden, "verification failed")
	}
}

// ReceiveWebhookHandler ingests inbound message notifications and hands each
// message to the bot. Always responds 200: a non-2xx makes the platform
// retry the notification, and bot failures are not made better by replays.
func ReceiveWebhookHandler(bot *chatbot.Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Warn().Err(err).Msg("undecodable webhook payload")
			metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
			respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		for _, entry := range payload.Entry {
			for _, change := range entry.Changes {
				profileName := ""
				if len(change.Value.Contacts) > 0 {
					profileName = change.Value.Contacts[0].Profile.Name
				}
				for _, msg := range change.Value.Messages {
					buttonTitle := msg.Button.Text
					if buttonTitle == "" {
						buttonTitle = msg.Interactive.ButtonReply.Title
					}
					ev := chatbot.Event{
						From:        msg.From,
						Text:        msg.Text.Body,
						ButtonTitle: buttonTitle,
						ProfileName: profileName,
						MessageID:   msg.ID,
					}
					if ev.From == "" {
						metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
						continue
					}
					if err := bot.HandleEvent(ctx, ev); err != nil {
						log.Error().Err(err).Str("from", ev.From).Msg("webhook event failed")
					}
				}
			}
		}

		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
