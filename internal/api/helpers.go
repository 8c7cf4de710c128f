package api

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// timestampPtr converts a pgtype.Timestamptz to a *time.Time for JSON
// responses, nil when the value is not set.
func timestampPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// textPtr converts a pgtype.Text to a *string for JSON responses, nil when
// the value is not set.
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// textOrNull builds a pgtype.Text from a possibly empty string; empty maps
// to SQL NULL.
func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
