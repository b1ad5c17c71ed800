package trend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const refreshTimeout = 10 * time.Second

// Computer computes the trend snapshots of one window.
type Computer interface {
	Compute(ctx context.Context, windowDays int) ([]Snapshot, error)
}

// Report is the latest computed trends of one window.
type Report struct {
	WindowDays int        `json:"window_days"`
	ComputedAt time.Time  `json:"computed_at"`
	Snapshots  []Snapshot `json:"snapshots"`
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithResultCounter counts refreshes by result ("success" or "error").
func WithResultCounter(vec *prometheus.CounterVec) RefresherOption {
	return func(r *Refresher) {
		r.results = vec
	}
}

// Refresher recomputes trends for every configured window on a fixed cadence
// and after debounced triggers. It is independent of the incremental path:
// a burst of live events costs at most one recompute per debounce period.
type Refresher struct {
	computer Computer
	windows  []int
	interval time.Duration
	debounce time.Duration
	results  *prometheus.CounterVec
	nowFn    func() time.Time

	trigger chan struct{}

	mu      sync.RWMutex
	reports map[int]Report
}

// NewRefresher creates a refresher for the given window day counts.
func NewRefresher(computer Computer, windows []int, interval, debounce time.Duration, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		computer: computer,
		windows:  append([]int(nil), windows...),
		interval: interval,
		debounce: debounce,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		trigger: make(chan struct{}, 1),
		reports: make(map[int]Report, len(windows)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Trigger requests a recompute. It never blocks; triggers arriving while one
// is already pending are coalesced.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Latest returns the most recent report for windowDays.
func (r *Refresher) Latest(windowDays int) (Report, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[windowDays]
	if !ok {
		return Report{}, false
	}
	report.Snapshots = append([]Snapshot(nil), report.Snapshots...)
	return report, true
}

// Start runs until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("[Trend] Starting refresher",
		"interval", r.interval,
		"debounce", r.debounce,
		"windows", r.windows,
	)

	// Populate every window before the first tick
	r.refreshAll(ctx)

	var (
		debounceTimer *time.Timer
		debounced     <-chan time.Time
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ticker.C:
			r.refreshAll(ctx)
		case <-r.trigger:
			if debounced != nil {
				continue
			}
			if r.debounce <= 0 {
				r.refreshAll(ctx)
				continue
			}
			debounceTimer = time.NewTimer(r.debounce)
			debounced = debounceTimer.C
		case <-debounced:
			debounced = nil
			debounceTimer = nil
			r.refreshAll(ctx)
		case <-ctx.Done():
			slog.Info("[Trend] Stopping refresher (context cancelled)")
			return nil
		}
	}
}

func (r *Refresher) refreshAll(ctx context.Context) {
	for _, days := range r.windows {
		if ctx.Err() != nil {
			return
		}
		r.refresh(ctx, days)
	}
}

func (r *Refresher) refresh(ctx context.Context, windowDays int) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	snapshots, err := r.computer.Compute(ctx, windowDays)
	if err != nil {
		// Keep serving the previous report
		slog.Error("[Trend] Refresh failed", "window_days", windowDays, "error", err)
		r.count("error")
		return
	}

	r.mu.Lock()
	r.reports[windowDays] = Report{
		WindowDays: windowDays,
		ComputedAt: r.nowFn(),
		Snapshots:  snapshots,
	}
	r.mu.Unlock()

	r.count("success")
	slog.Debug("[Trend] Refreshed", "window_days", windowDays)
}

func (r *Refresher) count(result string) {
	if r.results != nil {
		r.results.WithLabelValues(result).Inc()
	}
}
