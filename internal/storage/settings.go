package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// EnsureAppSettings creates the singleton settings row if it does not exist.
func (q *Queries) EnsureAppSettings(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `INSERT INTO app_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	return err
}

const getAppSettings = `
SELECT event_name, coupon_code, photos_link, updated_at
FROM app_settings
WHERE id = 1
`

// GetAppSettings returns the singleton settings row.
func (q *Queries) GetAppSettings(ctx context.Context) (AppSettings, error) {
	var s AppSettings
	err := q.db.QueryRow(ctx, getAppSettings).Scan(&s.EventName, &s.CouponCode, &s.PhotosLink, &s.UpdatedAt)
	return s, err
}

const updateAppSettings = `
INSERT INTO app_settings (id, event_name, coupon_code, photos_link, updated_at)
VALUES (1, $1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET event_name = excluded.event_name,
    coupon_code = excluded.coupon_code,
    photos_link = excluded.photos_link,
    updated_at = now()
RETURNING event_name, coupon_code, photos_link, updated_at
`

// UpdateAppSettingsParams holds the input for UpdateAppSettings.
type UpdateAppSettingsParams struct {
	EventName  pgtype.Text
	CouponCode pgtype.Text
	PhotosLink pgtype.Text
}

// UpdateAppSettings replaces the singleton settings row and returns it.
func (q *Queries) UpdateAppSettings(ctx context.Context, arg UpdateAppSettingsParams) (AppSettings, error) {
	var s AppSettings
	err := q.db.QueryRow(ctx, updateAppSettings, arg.EventName, arg.CouponCode, arg.PhotosLink).
		Scan(&s.EventName, &s.CouponCode, &s.PhotosLink, &s.UpdatedAt)
	return s, err
}
