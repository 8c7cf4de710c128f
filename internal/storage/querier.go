package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the full query surface of the storage layer. Handlers and
// services depend on this interface so tests can substitute mocks.
type Querier interface {
	// Messages (the outbound queue).
	EnqueueMessage(ctx context.Context, arg EnqueueMessageParams) (Message, error)
	LeaseQueuedBatch(ctx context.Context, limit int32) ([]Message, error)
	MarkMessageSent(ctx context.Context, arg MarkMessageSentParams) error
	MarkMessageRetryOrFailed(ctx context.Context, arg MarkMessageRetryOrFailedParams) (MessageStatus, error)
	ReclaimStaleMessages(ctx context.Context, staleBefore time.Time) (int64, error)
	GetMessageByID(ctx context.Context, id uuid.UUID) (Message, error)
	ListMessagesByStatus(ctx context.Context, arg ListMessagesByStatusParams) ([]Message, error)
	CountMessagesByStatus(ctx context.Context) ([]CountMessagesByStatusRow, error)
	DeleteAllMessages(ctx context.Context) error

	// Contacts.
	UpsertContact(ctx context.Context, arg UpsertContactParams) (Contact, error)
	UpsertInboundContact(ctx context.Context, arg UpsertContactParams) (Contact, error)
	TouchContactInbound(ctx context.Context, id uuid.UUID) error
	GetContactByID(ctx context.Context, id uuid.UUID) (Contact, error)
	GetContactPhone(ctx context.Context, id uuid.UUID) (string, error)
	ListContacts(ctx context.Context, arg ListContactsParams) ([]Contact, error)
	ListContactsByCampaign(ctx context.Context, arg ListContactsByCampaignParams) ([]Contact, error)
	ListOptInContacts(ctx context.Context) ([]Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error
	SetOptOutByPhones(ctx context.Context, phones []string) (int64, error)
	AcceptCouponByPhones(ctx context.Context, phones []string) (Contact, error)
	DeleteAllContacts(ctx context.Context) error

	// Campaigns.
	CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error)
	GetCampaignByID(ctx context.Context, id uuid.UUID) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)

	// Chat log.
	CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error)
	ListChatMessagesByContact(ctx context.Context, contactID uuid.UUID) ([]ChatMessage, error)
	ListChatThreads(ctx context.Context, search pgtype.Text) ([]ChatThreadRow, error)

	// Settings.
	EnsureAppSettings(ctx context.Context) error
	GetAppSettings(ctx context.Context) (AppSettings, error)
	UpdateAppSettings(ctx context.Context, arg UpdateAppSettingsParams) (AppSettings, error)
}

var _ Querier = (*Queries)(nil)
