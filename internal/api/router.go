// Package api exposes the HTTP surface: lead capture, campaign fan-out,
// the admin panel endpoints, and the inbound webhook.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brasilfoto/zapcast/internal/chatbot"
	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// RouterDeps bundles what the router needs to build its handlers.
type RouterDeps struct {
	Queries            storage.Querier
	Provider           provider.Provider
	Bot                *chatbot.Bot
	DB                 Pinger
	WebhookVerifyToken string
	Log                zerolog.Logger
}

// NewRouter builds the HTTP routing table.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(deps.Log))
	r.Use(RecoverMiddleware(deps.Log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/leads", CreateLeadHandler(deps.Queries))

	r.Get("/webhook", VerifyWebhookHandler(deps.WebhookVerifyToken))
	r.Post("/webhook", ReceiveWebhookHandler(deps.Bot))

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", ListCampaignsHandler(deps.Queries))
		r.Post("/", CreateCampaignHandler(deps.Queries))
		r.Post("/{id}/send", SendCampaignHandler(deps.Queries))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", GetSettingsHandler(deps.Queries))
		r.Post("/settings", UpdateSettingsHandler(deps.Queries))
		r.Put("/settings", UpdateSettingsHandler(deps.Queries))

		r.Get("/contacts", ListContactsHandler(deps.Queries))
		r.Delete("/contacts/{id}", DeleteContactHandler(deps.Queries))

		r.Get("/chats", ListChatThreadsHandler(deps.Queries))
		r.Get("/chats/{contactID}", GetChatThreadHandler(deps.Queries))
		r.Post("/chats/{contactID}/messages", SendChatMessageHandler(deps.Queries, deps.Provider))

		r.Get("/queue", QueueStatusHandler(deps.Queries))
		r.Post("/send-link", SendLinkHandler(deps.Queries))
		r.Post("/reset", ResetHandler(deps.Queries))
	})

	return r
}
