package analytics

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
)

var (
	// ErrNotInitialized is returned by ApplyEvent until Initialize has succeeded.
	ErrNotInitialized = errors.New("aggregator not initialized")

	// ErrMalformedEvent marks an event that failed validation. The view is untouched.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrOutsideWindow marks an event older than the active window start.
	ErrOutsideWindow = errors.New("event outside active window")
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLocation sets the timezone used to derive day keys. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithUnknownName sets the placeholder used for unresolved entity names.
func WithUnknownName(name string) Option {
	return func(a *Aggregator) {
		if name != "" {
			a.unknownName = name
		}
	}
}

// WithRecentLimit bounds the activity feed built by Initialize to the most
// recent k events. ApplyEvent never evicts; consumers truncate at render time.
func WithRecentLimit(k int) Option {
	return func(a *Aggregator) {
		a.recentLimit = k
	}
}

// WithClock overrides the clock used to compute the window start.
func WithClock(nowFn func() time.Time) Option {
	return func(a *Aggregator) {
		if nowFn != nil {
			a.nowFn = nowFn
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator maintains a View in sync with an event stream.
//
// It assumes a single writer: Initialize and ApplyEvent must never run
// concurrently with each other or with View. Callers that read from other
// goroutines serialise access themselves.
type Aggregator struct {
	names       EntityNameIndex
	loc         *time.Location
	unknownName string
	recentLimit int
	nowFn       func() time.Time
	logger      *slog.Logger

	initialized bool
	state       View           // RecentActivity held oldest-first so appends stay O(1)
	entityPos   map[string]int // entity id -> index in state.PerEntity
	sessionEnds int64          // session_end events folded into the running mean
}

// New creates an uninitialized aggregator resolving names through names.
func New(names EntityNameIndex, opts ...Option) *Aggregator {
	a := &Aggregator{
		names:       names,
		loc:         time.UTC,
		unknownName: DefaultUnknownName,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialized reports whether Initialize has succeeded.
func (a *Aggregator) Initialized() bool {
	return a.initialized
}

// Initialize rebuilds every view from a snapshot of the trailing windowDays.
// Malformed events and events older than the window are skipped. The call is
// all-or-nothing: on error the previous state is kept.
func (a *Aggregator) Initialize(events []v1.Event, windowDays int) error {
	if windowDays <= 0 {
		return fmt.Errorf("window days must be positive, got %d", windowDays)
	}

	start := WindowStart(a.nowFn(), windowDays)
	state := View{
		WindowDays:   windowDays,
		WindowStart:  start,
		TotalsByType: newTotals(),
	}

	entities := make(map[string]*EntityStats)
	days := make(map[string]*DayStats)
	recent := make([]Activity, 0, len(events))

	var (
		durationSum   float64
		durationCount int64
		skipped       int
	)

	for i := range events {
		evt := &events[i]
		if err := evt.Validate(); err != nil {
			a.logger.Warn("[Aggregator] Skipping malformed snapshot event", "event_id", evt.ID, "error", err)
			skipped++
			continue
		}
		if evt.OccurredAt.Before(start) {
			continue
		}

		state.TotalsByType[evt.Type]++

		if evt.Type == v1.EventSessionEnd && evt.DurationSeconds != nil {
			durationSum += *evt.DurationSeconds
			durationCount++
		}

		if tracksEntity(evt) {
			stats, ok := entities[evt.EntityID]
			if !ok {
				stats = &EntityStats{EntityID: evt.EntityID, DisplayName: a.resolve(evt.EntityID)}
				entities[evt.EntityID] = stats
			}
			countEntity(stats, evt.Type)
		}

		key := DayKey(evt.OccurredAt, a.loc)
		day, ok := days[key]
		if !ok {
			day = &DayStats{DayKey: key}
			days[key] = day
		}
		countDay(day, evt.Type)

		recent = append(recent, a.activity(evt))
	}

	state.PerEntity = make([]EntityStats, 0, len(entities))
	for _, stats := range entities {
		state.PerEntity = append(state.PerEntity, *stats)
	}
	sort.Slice(state.PerEntity, func(i, j int) bool {
		return entityLess(state.PerEntity[i], state.PerEntity[j])
	})

	state.PerDay = make([]DayStats, 0, len(days))
	for _, day := range days {
		state.PerDay = append(state.PerDay, *day)
	}
	sort.Slice(state.PerDay, func(i, j int) bool {
		return state.PerDay[i].DayKey < state.PerDay[j].DayKey
	})

	if durationCount > 0 {
		state.AverageSessionEngagementSeconds = durationSum / float64(durationCount)
	}

	// Oldest first; stable so equal timestamps keep arrival order.
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].OccurredAt.Before(recent[j].OccurredAt)
	})
	if a.recentLimit > 0 && len(recent) > a.recentLimit {
		recent = recent[len(recent)-a.recentLimit:]
	}
	state.RecentActivity = recent

	a.state = state
	a.sessionEnds = durationCount
	a.entityPos = make(map[string]int, len(state.PerEntity))
	for i, stats := range state.PerEntity {
		a.entityPos[stats.EntityID] = i
	}
	a.initialized = true

	a.logger.Debug("[Aggregator] Initialized",
		"window_days", windowDays,
		"events", len(events),
		"skipped", skipped,
		"entities", len(state.PerEntity),
		"days", len(state.PerDay),
	)
	return nil
}

// ApplyEvent folds one newly arrived event into every view in place.
//
// Events are not deduplicated: applying the same event twice counts it twice.
func (a *Aggregator) ApplyEvent(evt v1.Event) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	if err := evt.Validate(); err != nil {
		a.logger.Warn("[Aggregator] Skipping malformed event", "event_id", evt.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.OccurredAt.Before(a.state.WindowStart) {
		a.logger.Debug("[Aggregator] Skipping event older than window",
			"event_id", evt.ID,
			"occurred_at", evt.OccurredAt,
			"window_start", a.state.WindowStart,
		)
		return ErrOutsideWindow
	}

	a.state.TotalsByType[evt.Type]++

	if evt.Type == v1.EventSessionEnd && evt.DurationSeconds != nil {
		oldCount := float64(a.sessionEnds)
		a.state.AverageSessionEngagementSeconds =
			(a.state.AverageSessionEngagementSeconds*oldCount + *evt.DurationSeconds) / (oldCount + 1)
		a.sessionEnds++
	}

	if tracksEntity(&evt) {
		a.applyEntity(&evt)
	}

	a.applyDay(&evt)

	a.state.RecentActivity = append(a.state.RecentActivity, a.activity(&evt))
	return nil
}

// View returns a deep copy of the current views with RecentActivity newest first.
func (a *Aggregator) View() View {
	out := View{
		WindowDays:                      a.state.WindowDays,
		WindowStart:                     a.state.WindowStart,
		TotalsByType:                    make(map[v1.EventType]int64, len(a.state.TotalsByType)),
		PerEntity:                       make([]EntityStats, len(a.state.PerEntity)),
		PerDay:                          make([]DayStats, len(a.state.PerDay)),
		AverageSessionEngagementSeconds: a.state.AverageSessionEngagementSeconds,
		RecentActivity:                  make([]Activity, len(a.state.RecentActivity)),
	}
	for typ, n := range a.state.TotalsByType {
		out.TotalsByType[typ] = n
	}
	copy(out.PerEntity, a.state.PerEntity)
	copy(out.PerDay, a.state.PerDay)

	last := len(a.state.RecentActivity) - 1
	for i, act := range a.state.RecentActivity {
		out.RecentActivity[last-i] = act
	}
	return out
}

// applyEntity finds or creates the entity row, bumps its counter and moves it
// forward until PerEntity is sorted again. Only the touched row can be out of
// place, and its view count only ever grows, so one pass toward the front
// restores the order.
func (a *Aggregator) applyEntity(evt *v1.Event) {
	pos, ok := a.entityPos[evt.EntityID]
	if !ok {
		a.state.PerEntity = append(a.state.PerEntity, EntityStats{
			EntityID:    evt.EntityID,
			DisplayName: a.resolve(evt.EntityID),
		})
		pos = len(a.state.PerEntity) - 1
		a.entityPos[evt.EntityID] = pos
	}

	countEntity(&a.state.PerEntity[pos], evt.Type)

	rows := a.state.PerEntity
	for pos > 0 && entityLess(rows[pos], rows[pos-1]) {
		rows[pos], rows[pos-1] = rows[pos-1], rows[pos]
		a.entityPos[rows[pos].EntityID] = pos
		a.entityPos[rows[pos-1].EntityID] = pos - 1
		pos--
	}
}

// applyDay finds or creates the day bucket. Live events usually land on the
// last bucket or a new one after it; older days need a sorted insert.
func (a *Aggregator) applyDay(evt *v1.Event) {
	key := DayKey(evt.OccurredAt, a.loc)
	days := a.state.PerDay
	n := len(days)

	if n > 0 && days[n-1].DayKey == key {
		countDay(&days[n-1], evt.Type)
		return
	}
	if n == 0 || days[n-1].DayKey < key {
		a.state.PerDay = append(days, DayStats{DayKey: key})
		countDay(&a.state.PerDay[n], evt.Type)
		return
	}

	i := sort.Search(n, func(i int) bool { return days[i].DayKey >= key })
	if days[i].DayKey == key {
		countDay(&days[i], evt.Type)
		return
	}

	a.logger.Debug("[Aggregator] Out-of-order day bucket", "event_id", evt.ID, "day", key)
	days = append(days, DayStats{})
	copy(days[i+1:], days[i:])
	days[i] = DayStats{DayKey: key}
	countDay(&days[i], evt.Type)
	a.state.PerDay = days
}

func (a *Aggregator) activity(evt *v1.Event) Activity {
	act := Activity{
		ID:         evt.ID,
		Type:       evt.Type,
		EntityID:   evt.EntityID,
		OccurredAt: evt.OccurredAt,
		SessionID:  evt.SessionID,
		Metadata:   evt.Metadata,
	}
	if evt.EntityID != "" {
		act.DisplayName = a.resolve(evt.EntityID)
	}
	return act
}

func (a *Aggregator) resolve(id string) string {
	if name, ok := a.names.Resolve(id); ok {
		return name
	}
	a.logger.Debug("[Aggregator] Entity name not found, using placeholder", "entity_id", id)
	return a.unknownName
}

func tracksEntity(evt *v1.Event) bool {
	return evt.EntityID != "" && (evt.Type == v1.EventViewItem || evt.Type == v1.EventAddToCart)
}

func countEntity(stats *EntityStats, typ v1.EventType) {
	switch typ {
	case v1.EventViewItem:
		stats.ViewCount++
	case v1.EventAddToCart:
		stats.CartCount++
	}
	stats.ConversionRate = conversionRate(stats.ViewCount, stats.CartCount)
}

func countDay(day *DayStats, typ v1.EventType) {
	switch typ {
	case v1.EventViewItem:
		day.ViewCount++
	case v1.EventAddToCart:
		day.CartCount++
	case v1.EventHotspotClick:
		day.HotspotCount++
	case v1.EventSessionStart:
		day.SessionStartCount++
	case v1.EventSessionEnd:
		day.SessionEndCount++
	}
}

func conversionRate(views, carts int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(carts) / float64(views)
}

func entityLess(a, b EntityStats) bool {
	if a.ViewCount != b.ViewCount {
		return a.ViewCount > b.ViewCount
	}
	return a.EntityID < b.EntityID
}
