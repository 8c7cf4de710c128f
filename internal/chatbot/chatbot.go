// Package chatbot implements the inbound WhatsApp conversation flow: opt-out
// keywords, the coupon confirmation, and the first-contact welcome.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/brasilfoto/zapcast/internal/metrics"
	"github.com/brasilfoto/zapcast/internal/phone"
	"github.com/brasilfoto/zapcast/internal/provider"
	"github.com/brasilfoto/zapcast/internal/storage"
)

// optOutKeywords are the messages that unsubscribe a contact.
var optOutKeywords = map[string]bool{
	"sair":     true,
	"parar":    true,
	"cancelar": true,
	"stop":     true,
}

// Event is one inbound message extracted from a webhook notification.
type Event struct {
	// From is the sender's phone as reported by the webhook (digits only).
	From string
	// Text is the message body, empty for non-text messages.
	Text string
	// ButtonTitle is the title of a pressed interactive button reply, if any.
	ButtonTitle string
	// ProfileName is the sender's WhatsApp profile name, if present.
	ProfileName string
	// MessageID is the provider id of the inbound message.
	MessageID string
}

// Bot drives the conversation flow for inbound events.
type Bot struct {
	queries  storage.Querier
	provider provider.Provider
	log      zerolog.Logger
}

// New creates a Bot.
func New(queries storage.Querier, p provider.Provider, log zerolog.Logger) *Bot {
	return &Bot{
		queries:  queries,
		provider: p,
		log:      log,
	}
}

// HandleEvent routes one inbound message through the conversation flow.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) error {
	text := strings.ToLower(strings.TrimSpace(ev.Text))
	button := strings.ToLower(strings.TrimSpace(ev.ButtonTitle))

	switch {
	case optOutKeywords[text]:
		metrics.WebhookEventsTotal.WithLabelValues("opt_out").Inc()
		return b.optOut(ctx, ev.From)

	case strings.HasPrefix(button, "sim") || text == "sim" || text == "s" || text == "ok":
		metrics.WebhookEventsTotal.WithLabelValues("coupon_accept").Inc()
		return b.acceptCoupon(ctx, ev)

	default:
		metrics.WebhookEventsTotal.WithLabelValues("welcome").Inc()
		return b.welcome(ctx, ev)
	}
}

// optOut unsubscribes every contact matching the sender's number.
func (b *Bot) optOut(ctx context.Context, from string) error {
	candidates := phone.CandidatesBR(from)
	n, err := b.queries.SetOptOutByPhones(ctx, candidates)
	if err != nil {
		return fmt.Errorf("opt out %s: %w", from, err)
	}
	b.log.Info().Str("from", from).Int64("contacts", n).Msg("contact opted out")
	return nil
}

// acceptCoupon marks the coupon accepted and replies with the coupon code.
func (b *Bot) acceptCoupon(ctx context.Context, ev Event) error {
	candidates := phone.CandidatesBR(ev.From)

	contact, err := b.queries.AcceptCouponByPhones(ctx, candidates)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("accept coupon %s: %w", ev.From, err)
	}

	settings, err := b.queries.GetAppSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.CouponCode.Valid || settings.CouponCode.String == "" {
		b.log.Warn().Str("from", ev.From).Msg("coupon accepted but no coupon code configured")
		return nil
	}

	name := contact.Name
	if name == "" {
		name = ev.ProfileName
	}
	if name == "" {
		name = "cliente"
	}

	to := contact.PhoneE164
	if to == "" {
		to = ev.From
	}

	reply := fmt.Sprintf(
		"Perfeito, %s! Seu cupom é: %s. Quando as fotos estiverem disponíveis, enviaremos o link por aqui.",
		name, settings.CouponCode.String,
	)

	result, err := b.provider.SendText(ctx, to, reply)
	if err != nil {
		return fmt.Errorf("send coupon reply: %w", err)
	}

	b.logChat(ctx, contact.ID, "out", reply, result.ProviderMessageID)
	return nil
}

// welcome handles a first (or unrecognized) inbound message: it registers the
// contact, logs the exchange, and asks about the coupon.
func (b *Bot) welcome(ctx context.Context, ev Event) error {
	settings, err := b.queries.GetAppSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	eventName := "evento"
	if settings.EventName.Valid && settings.EventName.String != "" {
		eventName = settings.EventName.String
	}

	name := ev.ProfileName
	if name == "" {
		name = "cliente"
	}

	contact, err := b.queries.UpsertInboundContact(ctx, storage.UpsertContactParams{
		Name:      name,
		PhoneE164: ev.From,
		Source:    pgtype.Text{String: "whatsapp", Valid: true},
	})
	if err != nil {
		return fmt.Errorf("upsert inbound contact: %w", err)
	}

	if err := b.queries.TouchContactInbound(ctx, contact.ID); err != nil {
		return fmt.Errorf("touch inbound timestamps: %w", err)
	}

	inBody := ev.Text
	if inBody == "" {
		inBody = "[mensagem]"
	}
	b.logChat(ctx, contact.ID, "in", inBody, ev.MessageID)

	reply := fmt.Sprintf(
		"Oi! Vi que você se interessou nas fotos da %s. Quer receber seu cupom? Responda SIM.",
		eventName,
	)

	result, err := b.provider.SendText(ctx, ev.From, reply)
	if err != nil {
		return fmt.Errorf("send welcome reply: %w", err)
	}

	b.logChat(ctx, contact.ID, "out", reply, result.ProviderMessageID)
	return nil
}

// logChat appends to the conversation log; failures are logged, not returned,
// so a broken chat log never interrupts the flow.
func (b *Bot) logChat(ctx context.Context, contactID uuid.UUID, direction, body, providerMessageID string) {
	if contactID == uuid.Nil {
		return
	}
	_, err := b.queries.CreateChatMessage(ctx, storage.CreateChatMessageParams{
		ContactID:         contactID,
		Direction:         direction,
		Body:              pgtype.Text{String: body, Valid: body != ""},
		ProviderMessageID: pgtype.Text{String: providerMessageID, Valid: providerMessageID != ""},
	})
	if err != nil {
		b.log.Error().Err(err).Stringer("contact_id", contactID).Msg("failed to log chat message")
	}
}
