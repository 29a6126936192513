package horoscope

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/internal/stats"
)

type fakeProvider struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
	rids  sync.Map
}

func (f *fakeProvider) Daily(_ context.Context, sign Sign, day Day, requestID string) (Result, error) {
	f.calls.Add(1)
	f.rids.Store(requestID, true)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Text: "Good day ahead", Date: string(day), Sign: sign}, nil
}

func TestServiceFetchRecords(t *testing.T) {
	p := &fakeProvider{}
	store := stats.NewMemoryStore()
	svc := NewService(p, store)

	ctx := logger.WithUpdateMeta(context.Background(), 1, 77, 42)
	res, err := svc.Fetch(ctx, Leo, Today)
	require.NoError(t, err)
	require.Equal(t, "Good day ahead", res.Text)

	// sequential calls are never coalesced
	_, err = svc.Fetch(ctx, Leo, Today)
	require.NoError(t, err)
	require.EqualValues(t, 2, p.calls.Load())

	sum, err := store.Summary(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, sum.OK)
	require.Equal(t, 1, sum.Chats)
	require.Equal(t, []stats.SignCount{{Sign: "leo", Count: 2}}, sum.TopSigns)
}

func TestServiceFetchFailureRecordsCode(t *testing.T) {
	p := &fakeProvider{err: &ProviderError{Kind: KindTimeout, Err: context.DeadlineExceeded}}
	rec := &captureRecorder{}
	svc := NewService(p, rec)
	svc.newID = func() string { return "fixed-id" }

	_, err := svc.Fetch(context.Background(), Aries, "2024-01-15")
	require.ErrorIs(t, err, ErrTimeout)
	require.Len(t, rec.got, 1)
	require.Equal(t, "fixed-id", rec.got[0].ID)
	require.Equal(t, stats.OutcomeFail, rec.got[0].Outcome)
	require.Equal(t, "provider_timeout", rec.got[0].ErrorCode)
	require.Equal(t, "2024-01-15", rec.got[0].Day)
}

func TestServiceCoalescesConcurrentIdenticalFetches(t *testing.T) {
	p := &fakeProvider{gate: make(chan struct{})}
	svc := NewService(p, nil)

	var wg sync.WaitGroup
	results := make(chan Result, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Fetch(context.Background(), Virgo, Today)
			if err == nil {
				results <- res
			}
		}()
	}
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()
	close(results)

	require.EqualValues(t, 1, p.calls.Load())
	n := 0
	for res := range results {
		require.Equal(t, Virgo, res.Sign)
		n++
	}
	require.Equal(t, 3, n)
}

func TestServiceRecorderErrorDoesNotFailFetch(t *testing.T) {
	svc := NewService(&fakeProvider{}, &captureRecorder{err: errors.New("disk full")})
	_, err := svc.Fetch(context.Background(), Leo, Today)
	require.NoError(t, err)
}

type captureRecorder struct {
	mu  sync.Mutex
	got []stats.Record
	err error
}

func (c *captureRecorder) Record(_ context.Context, rec stats.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, rec)
	return c.err
}
