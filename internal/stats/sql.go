package stats

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore persists records in the horoscope_requests table.
// Works with both the postgres and sqlite drivers.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database whose schema is migrated.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type recordRow struct {
	Record
	DurationMS int64 `db:"duration_ms"`
}

// Record inserts one row.
func (s *SQLStore) Record(ctx context.Context, rec Record) error {
	row := recordRow{Record: rec, DurationMS: rec.Duration.Milliseconds()}
	query := `INSERT INTO horoscope_requests
		(id, chat_id, user_id, sign, day, outcome, error_code, duration_ms, created_at)
		VALUES (:id, :chat_id, :user_id, :sign, :day, :outcome, :error_code, :duration_ms, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert horoscope request: %w", err)
	}
	return nil
}

// Summary aggregates outcomes and the most requested signs.
func (s *SQLStore) Summary(ctx context.Context, topN int) (Summary, error) {
	var sum Summary

	var totals struct {
		Total  int `db:"total"`
		OK     int `db:"ok"`
		Failed int `db:"failed"`
		Chats  int `db:"chats"`
	}
	totalsQuery := s.db.Rebind(`SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS ok,
		COALESCE(SUM(CASE WHEN outcome <> ? THEN 1 ELSE 0 END), 0) AS failed,
		COUNT(DISTINCT chat_id) AS chats
		FROM horoscope_requests`)
	if err := s.db.GetContext(ctx, &totals, totalsQuery, OutcomeOK, OutcomeOK); err != nil {
		return Summary{}, fmt.Errorf("summarize horoscope requests: %w", err)
	}
	sum.Total, sum.OK, sum.Failed, sum.Chats = totals.Total, totals.OK, totals.Failed, totals.Chats

	if topN <= 0 {
		return sum, nil
	}
	topQuery := s.db.Rebind(`SELECT sign, COUNT(*) AS n
		FROM horoscope_requests
		WHERE outcome = ?
		GROUP BY sign
		ORDER BY n DESC, sign ASC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &sum.TopSigns, topQuery, OutcomeOK, topN); err != nil {
		return Summary{}, fmt.Errorf("top signs: %w", err)
	}
	return sum, nil
}
