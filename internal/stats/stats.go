// Package stats keeps an audit of horoscope provider calls and summarizes it
// for the admin /stats command.
package stats

import (
	"context"
	"time"
)

// Outcome values stored with each record.
const (
	OutcomeOK   = "ok"
	OutcomeFail = "fail"
)

// Record describes one provider call.
type Record struct {
	ID        string        `db:"id"`
	ChatID    int64         `db:"chat_id"`
	UserID    int64         `db:"user_id"`
	Sign      string        `db:"sign"`
	Day       string        `db:"day"`
	Outcome   string        `db:"outcome"`
	ErrorCode string        `db:"error_code"`
	Duration  time.Duration `db:"-"`
	CreatedAt time.Time     `db:"created_at"`
}

// SignCount is a sign with its number of successful fetches.
type SignCount struct {
	Sign  string `db:"sign"`
	Count int    `db:"n"`
}

// Summary aggregates all stored records.
type Summary struct {
	Total    int
	OK       int
	Failed   int
	Chats    int
	TopSigns []SignCount
}

// Recorder stores provider call records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Store records and summarizes provider calls.
type Store interface {
	Recorder
	Summary(ctx context.Context, topN int) (Summary, error)
}
