package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const messageColumns = `id, contact_id, campaign_id, template_name, template_lang, params,
	status, attempt_count, provider_message_id, error, locked_at, last_attempt_at, sent_at, created_at`

func scanMessage(row interface{ Scan(dest ...any) error }) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID,
		&m.ContactID,
		&m.CampaignID,
		&m.TemplateName,
		&m.TemplateLang,
		&m.Params,
		&m.Status,
		&m.AttemptCount,
		&m.ProviderMessageID,
		&m.Error,
		&m.LockedAt,
		&m.LastAttemptAt,
		&m.SentAt,
		&m.CreatedAt,
	)
	return m, err
}

const enqueueMessage = `
INSERT INTO messages (contact_id, campaign_id, template_name, template_lang, params, status)
VALUES ($1, $2, $3, $4, $5, 'queued')
RETURNING ` + messageColumns

// EnqueueMessageParams holds the input for EnqueueMessage.
type EnqueueMessageParams struct {
	ContactID    uuid.UUID
	CampaignID   pgtype.UUID
	TemplateName string
	TemplateLang string
	Params       []byte
}

// EnqueueMessage inserts a new outbound message in queued state.
func (q *Queries) EnqueueMessage(ctx context.Context, arg EnqueueMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, enqueueMessage,
		arg.ContactID,
		arg.CampaignID,
		arg.TemplateName,
		arg.TemplateLang,
		arg.Params,
	)
	return scanMessage(row)
}

// leaseQueuedBatch claims up to $1 of the oldest queued messages in a single
// statement. FOR UPDATE SKIP LOCKED makes concurrent leases disjoint: a row
// selected by one dispatcher is invisible to the others until the statement
// commits, at which point it is already in processing.
const leaseQueuedBatch = `
WITH picked AS (
	SELECT m.id
	FROM messages m
	WHERE m.status = 'queued'
	ORDER BY m.created_at
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
UPDATE messages m
SET status = 'processing', locked_at = now(), last_attempt_at = now()
FROM picked
WHERE m.id = picked.id
RETURNING ` + qualifiedMessageColumns

const qualifiedMessageColumns = `m.id, m.contact_id, m.campaign_id, m.template_name, m.template_lang, m.params,
	m.status, m.attempt_count, m.provider_message_id, m.error, m.locked_at, m.last_attempt_at, m.sent_at, m.created_at`

// LeaseQueuedBatch atomically transitions up to limit queued messages to
// processing, oldest first, and returns them. No two concurrent callers ever
// receive the same message.
func (q *Queries) LeaseQueuedBatch(ctx context.Context, limit int32) ([]Message, error) {
	rows, err := q.db.Query(ctx, leaseQueuedBatch, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// The status guard keeps terminal rows immutable and makes the call
// idempotent: marking an already-sent message matches zero rows.
const markMessageSent = `
UPDATE messages
SET status = 'sent', provider_message_id = $2, sent_at = now()
WHERE id = $1 AND status = 'processing'
`

// MarkMessageSentParams holds the input for MarkMessageSent.
type MarkMessageSentParams struct {
	ID                uuid.UUID
	ProviderMessageID pgtype.Text
}

// MarkMessageSent transitions a processing message to sent, stamping sent_at.
func (q *Queries) MarkMessageSent(ctx context.Context, arg MarkMessageSentParams) error {
	_, err := q.db.Exec(ctx, markMessageSent, arg.ID, arg.ProviderMessageID)
	return err
}

const markMessageRetryOrFailed = `
UPDATE messages
SET status = CASE WHEN $2 >= $3 THEN 'failed' ELSE 'queued' END,
    attempt_count = $2,
    error = $4
WHERE id = $1 AND status = 'processing'
RETURNING status
`

// MarkMessageRetryOrFailedParams holds the input for MarkMessageRetryOrFailed.
type MarkMessageRetryOrFailedParams struct {
	ID           uuid.UUID
	AttemptCount int32
	MaxAttempts  int32
	Error        string
}

// MarkMessageRetryOrFailed records a failed delivery attempt. The message
// returns to queued (keeping its original FIFO position) unless the attempt
// budget is exhausted, in which case it becomes failed. Returns the resulting
// status; pgx.ErrNoRows if the message was not in processing.
func (q *Queries) MarkMessageRetryOrFailed(ctx context.Context, arg MarkMessageRetryOrFailedParams) (MessageStatus, error) {
	var status MessageStatus
	err := q.db.QueryRow(ctx, markMessageRetryOrFailed,
		arg.ID,
		arg.AttemptCount,
		arg.MaxAttempts,
		arg.Error,
	).Scan(&status)
	return status, err
}

const reclaimStaleMessages = `
UPDATE messages
SET status = 'queued', locked_at = NULL
WHERE status = 'processing' AND locked_at < $1
`

// ReclaimStaleMessages requeues messages stuck in processing since before the
// given cutoff, e.g. after a dispatcher crash. Returns the number of rows
// requeued.
func (q *Queries) ReclaimStaleMessages(ctx context.Context, staleBefore time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, reclaimStaleMessages, staleBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getMessageByID = `
SELECT ` + messageColumns + `
FROM messages
WHERE id = $1
`

// GetMessageByID fetches a single message.
func (q *Queries) GetMessageByID(ctx context.Context, id uuid.UUID) (Message, error) {
	return scanMessage(q.db.QueryRow(ctx, getMessageByID, id))
}

const listMessagesByStatus = `
SELECT ` + messageColumns + `
FROM messages
WHERE status = $1
ORDER BY created_at
LIMIT $2
`

// ListMessagesByStatusParams holds the input for ListMessagesByStatus.
type ListMessagesByStatusParams struct {
	Status MessageStatus
	Limit  int32
}

// ListMessagesByStatus returns messages in the given state, oldest first.
func (q *Queries) ListMessagesByStatus(ctx context.Context, arg ListMessagesByStatusParams) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessagesByStatus, arg.Status, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

const countMessagesByStatus = `
SELECT status, count(*)
FROM messages
GROUP BY status
`

// CountMessagesByStatusRow is one row of CountMessagesByStatus.
type CountMessagesByStatusRow struct {
	Status MessageStatus
	Count  int64
}

// CountMessagesByStatus returns per-status message counts.
func (q *Queries) CountMessagesByStatus(ctx context.Context) ([]CountMessagesByStatusRow, error) {
	rows, err := q.db.Query(ctx, countMessagesByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CountMessagesByStatusRow
	for rows.Next() {
		var r CountMessagesByStatusRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteAllMessages removes every message row. Admin reset only.
func (q *Queries) DeleteAllMessages(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `DELETE FROM messages`)
	return err
}
