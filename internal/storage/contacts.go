package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const contactColumns = `id, name, phone_e164, opt_in, opt_in_at, coupon_status, source,
	first_inbound_at, last_inbound_at, created_at`

func scanContact(row interface{ Scan(dest ...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.PhoneE164,
		&c.OptIn,
		&c.OptInAt,
		&c.CouponStatus,
		&c.Source,
		&c.FirstInboundAt,
		&c.LastInboundAt,
		&c.CreatedAt,
	)
	return c, err
}

func collectContacts(q *Queries, ctx context.Context, sql string, args ...any) ([]Contact, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const upsertContact = `
INSERT INTO contacts (name, phone_e164, opt_in, opt_in_at, coupon_status, source)
VALUES ($1, $2, true, now(), 'pending', $3)
ON CONFLICT (phone_e164)
DO UPDATE SET name = excluded.name, opt_in = true, opt_in_at = now(),
	coupon_status = 'pending', source = excluded.source
RETURNING ` + contactColumns

// UpsertContactParams holds the input for UpsertContact.
type UpsertContactParams struct {
	Name      string
	PhoneE164 string
	Source    pgtype.Text
}

// UpsertContact inserts or re-opts-in a contact keyed by phone number.
func (q *Queries) UpsertContact(ctx context.Context, arg UpsertContactParams) (Contact, error) {
	row := q.db.QueryRow(ctx, upsertContact, arg.Name, arg.PhoneE164, arg.Source)
	return scanContact(row)
}

// Inbound upsert keeps the existing name if the contact is already known.
const upsertInboundContact = `
INSERT INTO contacts (name, phone_e164, opt_in, opt_in_at, coupon_status, source)
VALUES ($1, $2, true, now(), 'pending', $3)
ON CONFLICT (phone_e164)
DO UPDATE SET opt_in = true, opt_in_at = now(), coupon_status = 'pending'
RETURNING ` + contactColumns

// UpsertInboundContact inserts or re-opts-in a contact reached through the
// inbound webhook. Unlike UpsertContact it never overwrites the stored name.
func (q *Queries) UpsertInboundContact(ctx context.Context, arg UpsertContactParams) (Contact, error) {
	row := q.db.QueryRow(ctx, upsertInboundContact, arg.Name, arg.PhoneE164, arg.Source)
	return scanContact(row)
}

const touchContactInbound = `
UPDATE contacts
SET first_inbound_at = coalesce(first_inbound_at, now()),
    last_inbound_at = now()
WHERE id = $1
`

// TouchContactInbound stamps the inbound-activity timestamps for a contact.
func (q *Queries) TouchContactInbound(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchContactInbound, id)
	return err
}

const getContactByID = `
SELECT ` + contactColumns + `
FROM contacts
WHERE id = $1
`

// GetContactByID fetches a single contact.
func (q *Queries) GetContactByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	return scanContact(q.db.QueryRow(ctx, getContactByID, id))
}

// GetContactPhone returns the delivery address for a contact.
func (q *Queries) GetContactPhone(ctx context.Context, id uuid.UUID) (string, error) {
	var phone string
	err := q.db.QueryRow(ctx, `SELECT phone_e164 FROM contacts WHERE id = $1`, id).Scan(&phone)
	return phone, err
}

const listContacts = `
SELECT ` + contactColumns + `
FROM contacts
WHERE ($1::boolean IS NULL OR opt_in = $1)
  AND ($2::text IS NULL OR name ILIKE $2 OR phone_e164 ILIKE $2)
ORDER BY created_at DESC
LIMIT 500
`

// ListContactsParams holds the optional filters for ListContacts.
type ListContactsParams struct {
	OptIn  pgtype.Bool
	Search pgtype.Text
}

// ListContacts returns contacts matching the given filters, newest first.
// The Search filter matches name or phone with a substring pattern.
func (q *Queries) ListContacts(ctx context.Context, arg ListContactsParams) ([]Contact, error) {
	return collectContacts(q, ctx, listContacts, arg.OptIn, arg.Search)
}

const listContactsByCampaign = `
SELECT DISTINCT ` + qualifiedContactColumns + `
FROM contacts c
JOIN messages m ON m.contact_id = c.id
WHERE m.campaign_id = $3
  AND ($1::boolean IS NULL OR c.opt_in = $1)
  AND ($2::text IS NULL OR c.name ILIKE $2 OR c.phone_e164 ILIKE $2)
ORDER BY c.created_at DESC
LIMIT 500
`

const qualifiedContactColumns = `c.id, c.name, c.phone_e164, c.opt_in, c.opt_in_at, c.coupon_status, c.source,
	c.first_inbound_at, c.last_inbound_at, c.created_at`

// ListContactsByCampaignParams holds the input for ListContactsByCampaign.
type ListContactsByCampaignParams struct {
	OptIn      pgtype.Bool
	Search     pgtype.Text
	CampaignID uuid.UUID
}

// ListContactsByCampaign returns contacts that were messaged by a campaign.
func (q *Queries) ListContactsByCampaign(ctx context.Context, arg ListContactsByCampaignParams) ([]Contact, error) {
	return collectContacts(q, ctx, listContactsByCampaign, arg.OptIn, arg.Search, arg.CampaignID)
}

const listOptInContacts = `
SELECT ` + contactColumns + `
FROM contacts
WHERE opt_in = true
ORDER BY created_at
`

// ListOptInContacts returns every contact eligible for campaign sends.
func (q *Queries) ListOptInContacts(ctx context.Context) ([]Contact, error) {
	return collectContacts(q, ctx, listOptInContacts)
}

// DeleteContact removes a contact and, by cascade, its messages and chats.
func (q *Queries) DeleteContact(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	return err
}

const setOptOutByPhones = `
UPDATE contacts SET opt_in = false WHERE phone_e164 = ANY($1)
`

// SetOptOutByPhones opts out every contact whose phone matches one of the
// candidate numbers. Returns the number of contacts updated.
func (q *Queries) SetOptOutByPhones(ctx context.Context, phones []string) (int64, error) {
	tag, err := q.db.Exec(ctx, setOptOutByPhones, phones)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const acceptCouponByPhones = `
UPDATE contacts
SET coupon_status = 'accepted'
WHERE phone_e164 = ANY($1)
RETURNING ` + contactColumns

// AcceptCouponByPhones marks the coupon accepted for the contact matching one
// of the candidate numbers and returns it. pgx.ErrNoRows if none matched.
func (q *Queries) AcceptCouponByPhones(ctx context.Context, phones []string) (Contact, error) {
	return scanContact(q.db.QueryRow(ctx, acceptCouponByPhones, phones))
}

// DeleteAllContacts removes every contact row. Admin reset only.
func (q *Queries) DeleteAllContacts(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `DELETE FROM contacts`)
	return err
}
