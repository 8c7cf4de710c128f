package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx operations the query layer needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries provides typed access to the database.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given connection or pool.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// MessageStatus is the lifecycle state of an outbound message.
type MessageStatus string

const (
	MessageStatusQueued     MessageStatus = "queued"
	MessageStatusProcessing MessageStatus = "processing"
	MessageStatusSent       MessageStatus = "sent"
	MessageStatusFailed     MessageStatus = "failed"
)

// Message is one durable outbound template send. Rows are created queued,
// leased into processing by a dispatcher, and finish in sent or failed.
type Message struct {
	ID                uuid.UUID
	ContactID         uuid.UUID
	CampaignID        pgtype.UUID
	TemplateName      string
	TemplateLang      string
	Params            []byte
	Status            MessageStatus
	AttemptCount      int32
	ProviderMessageID pgtype.Text
	Error             pgtype.Text
	LockedAt          pgtype.Timestamptz
	LastAttemptAt     pgtype.Timestamptz
	SentAt            pgtype.Timestamptz
	CreatedAt         pgtype.Timestamptz
}

// Contact is a message recipient.
type Contact struct {
	ID             uuid.UUID
	Name           string
	PhoneE164      string
	OptIn          bool
	OptInAt        pgtype.Timestamptz
	CouponStatus   string
	Source         pgtype.Text
	FirstInboundAt pgtype.Timestamptz
	LastInboundAt  pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
}

// Campaign is a named template blast.
type Campaign struct {
	ID           uuid.UUID
	Name         string
	TemplateName string
	TemplateLang string
	CreatedAt    pgtype.Timestamptz
}

// ChatMessage is one inbound or outbound conversation entry for a contact.
type ChatMessage struct {
	ID                uuid.UUID
	ContactID         uuid.UUID
	Direction         string
	Body              pgtype.Text
	ProviderMessageID pgtype.Text
	CreatedAt         pgtype.Timestamptz
}

// AppSettings is the singleton application settings row.
type AppSettings struct {
	EventName  pgtype.Text
	CouponCode pgtype.Text
	PhotosLink pgtype.Text
	UpdatedAt  pgtype.Timestamptz
}
