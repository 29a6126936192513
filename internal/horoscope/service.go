package horoscope

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/internal/stats"
)

const component = "service.horoscope"

// Service fronts a Provider with request ids, logging and fetch statistics.
// Identical requests in flight at the same moment share one provider call.
type Service struct {
	provider Provider
	recorder stats.Recorder
	group    singleflight.Group
	now      func() time.Time
	newID    func() string
}

// NewService wires a Service. recorder may be nil.
func NewService(provider Provider, recorder stats.Recorder) *Service {
	return &Service{
		provider: provider,
		recorder: recorder,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Fetch returns the daily horoscope for sign and day.
func (s *Service) Fetch(ctx context.Context, sign Sign, day Day) (Result, error) {
	key := string(sign) + "|" + string(day)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetch(ctx, sign, day)
	})
	if shared {
		logger.Debug(ctx, component, "fetch.shared",
			slog.String("sign", string(sign)),
			slog.String("day", string(day)),
		)
	}
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (s *Service) fetch(ctx context.Context, sign Sign, day Day) (Result, error) {
	id := s.newID()
	ctx = logger.WithRequestID(ctx, id)
	start := s.now()
	res, err := s.provider.Daily(ctx, sign, day, id)
	took := s.now().Sub(start)

	attrs := []slog.Attr{
		slog.String("sign", string(sign)),
		slog.String("day", string(day)),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", ErrorCode(err)),
		)
		logger.Warn(ctx, component, "fetch", attrs...)
	} else {
		attrs = append(attrs, slog.String("status", "ok"))
		logger.Info(ctx, component, "fetch", attrs...)
	}

	s.record(ctx, id, sign, day, took, err)
	return res, err
}

func (s *Service) record(ctx context.Context, id string, sign Sign, day Day, took time.Duration, fetchErr error) {
	if s.recorder == nil {
		return
	}
	rec := stats.Record{
		ID:        id,
		ChatID:    logger.ChatIDFrom(ctx),
		UserID:    logger.UserIDFrom(ctx),
		Sign:      string(sign),
		Day:       string(day),
		Outcome:   stats.OutcomeOK,
		Duration:  took,
		CreatedAt: s.now().UTC(),
	}
	if fetchErr != nil {
		rec.Outcome = stats.OutcomeFail
		rec.ErrorCode = ErrorCode(fetchErr)
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		logger.Warn(ctx, "service.stats", "record.fail",
			slog.String("err", err.Error()),
		)
	}
}
