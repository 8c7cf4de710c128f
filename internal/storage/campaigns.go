package storage

import (
	"context"

	"github.com/google/uuid"
)

const campaignColumns = `id, name, template_name, template_lang, created_at`

func scanCampaign(row interface{ Scan(dest ...any) error }) (Campaign, error) {
	var c Campaign
	err := row.Scan(&c.ID, &c.Name, &c.TemplateName, &c.TemplateLang, &c.CreatedAt)
	return c, err
}

const createCampaign = `
INSERT INTO campaigns (name, template_name, template_lang)
VALUES ($1, $2, $3)
RETURNING ` + campaignColumns

// CreateCampaignParams holds the input for CreateCampaign.
type CreateCampaignParams struct {
	Name         string
	TemplateName string
	TemplateLang string
}

// CreateCampaign inserts a new campaign.
func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) (Campaign, error) {
	row := q.db.QueryRow(ctx, createCampaign, arg.Name, arg.TemplateName, arg.TemplateLang)
	return scanCampaign(row)
}

const getCampaignByID = `
SELECT ` + campaignColumns + `
FROM campaigns
WHERE id = $1
`

// GetCampaignByID fetches a single campaign.
func (q *Queries) GetCampaignByID(ctx context.Context, id uuid.UUID) (Campaign, error) {
	return scanCampaign(q.db.QueryRow(ctx, getCampaignByID, id))
}

const listCampaigns = `
SELECT ` + campaignColumns + `
FROM campaigns
ORDER BY created_at DESC
`

// ListCampaigns returns all campaigns, newest first.
func (q *Queries) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := q.db.Query(ctx, listCampaigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
