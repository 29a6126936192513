package logger

import (
	"log/slog"
	"strings"
)

// Status and outcome values recognised by dashboards. Unknown statuses are
// passed through lowercased; unknown outcomes are dropped.
var (
	knownStatus  = set("ok", "fail", "skip", "retry", "cancelled")
	knownOutcome = set("ok", "fail", "cancelled", "reprompt")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// levelName renders slog levels without the "+N" offsets slog appends for
// in-between levels: anything above ERROR is still ERROR.
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	_, ok := knownStatus[status]
	return status, ok
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcome[outcome]
	return outcome, ok
}

// defaultKeyOrder puts correlation and outcome fields first so lines line
// up when tailed; keys not listed follow alphabetically.
var defaultKeyOrder = strings.Fields(`
	ts level component event status
	rid rid_full ts_unix_nano update_id user_id chat_id chat_type
	handler flow outcome duration_ms messages kb
	state from_state to_state sign day request_id
	payload lang username
	mode listen public_url http_code
	db host port
	err err_code cause attempts
`)
