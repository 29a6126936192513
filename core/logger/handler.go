package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
	redacted         = "<redacted>"
)

var errNoWriter = errors.New("logger: writer not initialized")

// botTokenRe matches Telegram bot tokens, which telebot errors embed in
// request URLs.
var botTokenRe = regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{30,}`)

// RedactToken replaces anything shaped like a bot token.
func RedactToken(s string) string {
	if !strings.Contains(s, ":") {
		return s
	}
	return botTokenRe.ReplaceAllString(s, redacted)
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler flattens a record into one map and prints it as a
// single JSON object or key=value line. Groups become dotted keys.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// WithAttrs binds attrs under the group prefix in effect at this point.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Clip(slices.Clone(h.attrs))
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: joinKey(h.prefix, a.Key), Value: a.Value})
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	asJSON := h.cfg.format == formatJSON

	f := make(fields, 16)
	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = levelName(r.Level)
	if asJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	f.fromContext(ctx)
	f.compactRID(asJSON)
	f.fill("event", r.Message, "unknown")
	f.fill("component", "app")
	f.normalize()

	keys := f.keys(h.cfg.keyOrder)
	var line []byte
	if asJSON {
		var err error
		if line, err = encodeJSON(f, keys); err != nil {
			return err
		}
	} else {
		line = encodeKV(f, keys)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

// fields is one record being assembled. Values are already normalized to
// string, bool, int64, uint64 or float64.
type fields map[string]any

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func (f fields) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := normalizeValue(key, v); ok {
		f[k] = val
	}
}

func normalizeValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, RedactToken(strings.TrimSpace(v.String())), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, RedactToken(x.Error()), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, RedactToken(x.String()), true
	default:
		return key, RedactToken(fmt.Sprint(x)), true
	}
}

// msKey maps duration attributes onto *_ms keys.
func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

// fill sets key to the first non-empty candidate unless it already holds
// a non-empty string.
func (f fields) fill(key string, candidates ...string) {
	if s, _ := f[key].(string); s != "" {
		return
	}
	for _, c := range candidates {
		if c != "" {
			f[key] = c
			return
		}
	}
}

// compactRID shortens rid; JSON lines keep the original in rid_full.
func (f fields) compactRID(keepFull bool) {
	rid, _ := f["rid"].(string)
	if rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == rid {
		return
	}
	if _, seen := f["rid_full"]; keepFull && !seen {
		f["rid_full"] = rid
	}
	f["rid"] = compact
}

// normalize lowercases status, drops outcomes outside the schema and
// removes empty values.
func (f fields) normalize() {
	if s, _ := f["status"].(string); s != "" {
		f["status"], _ = normalizeStatus(s)
	}
	if o, _ := f["outcome"].(string); o != "" {
		if norm, ok := normalizeOutcome(o); ok {
			f["outcome"] = norm
		} else {
			delete(f, "outcome")
		}
	}
	for k, v := range f {
		if v == nil || v == "" {
			delete(f, k)
		}
	}
}

type contextField struct {
	key string
	get func(context.Context) any
}

var contextFields = []contextField{
	{"rid", func(ctx context.Context) any { return RIDFrom(ctx) }},
	{"update_id", func(ctx context.Context) any { return int64(UpdateIDFrom(ctx)) }},
	{"user_id", func(ctx context.Context) any { return UserIDFrom(ctx) }},
	{"chat_id", func(ctx context.Context) any { return ChatIDFrom(ctx) }},
	{"handler", func(ctx context.Context) any { return HandlerFrom(ctx) }},
	{"flow", func(ctx context.Context) any { return FlowFrom(ctx) }},
	{"request_id", func(ctx context.Context) any { return RequestIDFrom(ctx) }},
}

// fromContext copies correlation ids from ctx unless an attr already set
// the key.
func (f fields) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	for _, cf := range contextFields {
		if _, ok := f[cf.key]; ok {
			continue
		}
		if v := cf.get(ctx); v != "" && v != int64(0) {
			f[cf.key] = v
		}
	}
}
