package trend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComputer struct {
	calls atomic.Int64
	mu    sync.Mutex
	err   error
}

func (f *fakeComputer) Compute(_ context.Context, windowDays int) ([]Snapshot, error) {
	n := f.calls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []Snapshot{{Metric: MetricViews, CurrentPeriodValue: n, PreviousPeriodValue: int64(windowDays)}}, nil
}

func (f *fakeComputer) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func startRefresher(t *testing.T, r *Refresher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, r.Start(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRefresher_InitialRefreshCoversEveryWindow(t *testing.T) {
	computer := &fakeComputer{}
	r := NewRefresher(computer, []int{7, 30, 90}, time.Hour, 0)

	_, ok := r.Latest(7)
	require.False(t, ok)

	startRefresher(t, r)

	require.Eventually(t, func() bool { return computer.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	for _, days := range []int{7, 30, 90} {
		report, ok := r.Latest(days)
		require.True(t, ok, days)
		require.Equal(t, days, report.WindowDays)
		require.Len(t, report.Snapshots, 1)
	}
}

func TestRefresher_TriggersAreDebounced(t *testing.T) {
	computer := &fakeComputer{}
	r := NewRefresher(computer, []int{7}, time.Hour, 50*time.Millisecond)
	startRefresher(t, r)

	require.Eventually(t, func() bool { return computer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < 20; i++ {
		r.Trigger()
	}

	require.Eventually(t, func() bool { return computer.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int64(2), computer.calls.Load())

	r.Trigger()
	require.Eventually(t, func() bool { return computer.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestRefresher_FailureKeepsPreviousReport(t *testing.T) {
	computer := &fakeComputer{}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_trend_refresh_total"}, []string{"result"})
	r := NewRefresher(computer, []int{7}, time.Hour, 0, WithResultCounter(results))
	startRefresher(t, r)

	require.Eventually(t, func() bool { return computer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	first, ok := r.Latest(7)
	require.True(t, ok)

	computer.fail(errors.New("database unavailable"))
	r.Trigger()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(results.WithLabelValues("error")) == 1
	}, time.Second, 5*time.Millisecond)

	latest, ok := r.Latest(7)
	require.True(t, ok)
	require.Equal(t, first, latest)
	require.Equal(t, float64(1), testutil.ToFloat64(results.WithLabelValues("success")))
}

func TestRefresher_StopsOnCancel(t *testing.T) {
	r := NewRefresher(&fakeComputer{}, []int{7}, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
