package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const chatMessageColumns = `id, contact_id, direction, body, provider_message_id, created_at`

func scanChatMessage(row interface{ Scan(dest ...any) error }) (ChatMessage, error) {
	var m ChatMessage
	err := row.Scan(&m.ID, &m.ContactID, &m.Direction, &m.Body, &m.ProviderMessageID, &m.CreatedAt)
	return m, err
}

const createChatMessage = `
INSERT INTO chat_messages (contact_id, direction, body, provider_message_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + chatMessageColumns

// CreateChatMessageParams holds the input for CreateChatMessage.
type CreateChatMessageParams struct {
	ContactID         uuid.UUID
	Direction         string
	Body              pgtype.Text
	ProviderMessageID pgtype.Text
}

// CreateChatMessage appends an entry to a contact's conversation log.
func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, createChatMessage,
		arg.ContactID, arg.Direction, arg.Body, arg.ProviderMessageID)
	return scanChatMessage(row)
}

const listChatMessagesByContact = `
SELECT ` + chatMessageColumns + `
FROM chat_messages
WHERE contact_id = $1
ORDER BY created_at ASC
LIMIT 500
`

// ListChatMessagesByContact returns a contact's conversation, oldest first.
func (q *Queries) ListChatMessagesByContact(ctx context.Context, contactID uuid.UUID) ([]ChatMessage, error) {
	rows, err := q.db.Query(ctx, listChatMessagesByContact, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const listChatThreads = `
SELECT c.id, c.name, c.phone_e164, c.opt_in, c.first_inbound_at, c.last_inbound_at, c.created_at,
       cm.body, cm.created_at, cm.direction
FROM contacts c
LEFT JOIN LATERAL (
	SELECT body, created_at, direction
	FROM chat_messages
	WHERE contact_id = c.id
	ORDER BY created_at DESC
	LIMIT 1
) cm ON true
WHERE ($1::text IS NULL OR c.name ILIKE $1 OR c.phone_e164 ILIKE $1)
ORDER BY cm.created_at DESC NULLS LAST, c.created_at DESC
LIMIT 500
`

// ChatThreadRow is one conversation summary: a contact plus its most recent
// chat message, if any.
type ChatThreadRow struct {
	ContactID      uuid.UUID
	Name           string
	PhoneE164      string
	OptIn          bool
	FirstInboundAt pgtype.Timestamptz
	LastInboundAt  pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
	LastMessage    pgtype.Text
	LastMessageAt  pgtype.Timestamptz
	LastDirection  pgtype.Text
}

// ListChatThreads returns conversation summaries ordered by recent activity.
func (q *Queries) ListChatThreads(ctx context.Context, search pgtype.Text) ([]ChatThreadRow, error) {
	rows, err := q.db.Query(ctx, listChatThreads, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatThreadRow
	for rows.Next() {
		var r ChatThreadRow
		if err := rows.Scan(
			&r.ContactID,
			&r.Name,
			&r.PhoneE164,
			&r.OptIn,
			&r.FirstInboundAt,
			&r.LastInboundAt,
			&r.CreatedAt,
			&r.LastMessage,
			&r.LastMessageAt,
			&r.LastDirection,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
