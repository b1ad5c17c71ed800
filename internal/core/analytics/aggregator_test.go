package analytics

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var testNames = EntityNameIndex{
	"item-a": "Truffle Burger",
	"item-b": "Miso Ramen",
	"item-c": "Matcha Tiramisu",
	"item-d": "Yuzu Spritz",
}

func newTestAggregator(opts ...Option) *Aggregator {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(testNames, opts...)
}

func event(id string, typ v1.EventType, entity string, at time.Time) v1.Event {
	return v1.Event{
		ID:         id,
		Type:       typ,
		EntityID:   entity,
		SessionID:  "sess-1",
		OccurredAt: at,
	}
}

func sessionEnd(id string, at time.Time, seconds float64) v1.Event {
	evt := event(id, v1.EventSessionEnd, "", at)
	evt.DurationSeconds = v1.Duration(seconds)
	return evt
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregator_EndToEndScenario(t *testing.T) {
	agg := newTestAggregator()

	err := agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", day(5, 10)),
		event("e2", v1.EventAddToCart, "item-a", day(5, 11)),
		event("e3", v1.EventViewItem, "item-a", day(6, 9)),
	}, 7)
	require.NoError(t, err)

	view := agg.View()
	require.Equal(t, []EntityStats{
		{EntityID: "item-a", DisplayName: "Truffle Burger", ViewCount: 2, CartCount: 1, ConversionRate: 0.5},
	}, view.PerEntity)
	require.Equal(t, []DayStats{
		{DayKey: "2026-03-05", ViewCount: 1, CartCount: 1},
		{DayKey: "2026-03-06", ViewCount: 1, CartCount: 0},
	}, view.PerDay)
	require.Equal(t, int64(2), view.TotalsByType[v1.EventViewItem])
	require.Equal(t, int64(1), view.TotalsByType[v1.EventAddToCart])
	require.Equal(t, 7, view.WindowDays)
	require.Equal(t, testNow.Add(-7*24*time.Hour), view.WindowStart)
}

func TestAggregator_InitializeEmpty(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize(nil, 30))
	require.True(t, agg.Initialized())

	view := agg.View()
	require.Len(t, view.TotalsByType, len(v1.EventTypes))
	for _, typ := range v1.EventTypes {
		require.Zero(t, view.TotalsByType[typ], typ)
	}
	require.Empty(t, view.PerEntity)
	require.Empty(t, view.PerDay)
	require.Empty(t, view.RecentActivity)
	require.Zero(t, view.AverageSessionEngagementSeconds)
}

func TestAggregator_InitializeRejectsBadWindow(t *testing.T) {
	agg := newTestAggregator()
	require.Error(t, agg.Initialize(nil, 0))
	require.False(t, agg.Initialized())

	require.NoError(t, agg.Initialize([]v1.Event{event("e1", v1.EventViewItem, "item-a", day(9, 1))}, 7))
	before := agg.View()

	require.Error(t, agg.Initialize(nil, -3))
	require.True(t, agg.Initialized())
	require.Equal(t, before, agg.View())
}

func TestAggregator_ApplyBeforeInitialize(t *testing.T) {
	agg := newTestAggregator()
	err := agg.ApplyEvent(event("e1", v1.EventViewItem, "item-a", day(9, 1)))
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestAggregator_MalformedEventIsSkipped(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", day(9, 1)),
		{ID: "bad", Type: "checkout", OccurredAt: day(9, 2)},
		{ID: "", Type: v1.EventViewItem, OccurredAt: day(9, 3)},
	}, 7))

	before := agg.View()
	require.Equal(t, int64(1), before.TotalsByType[v1.EventViewItem])
	require.Len(t, before.RecentActivity, 1)

	err := agg.ApplyEvent(v1.Event{ID: "e2", Type: v1.EventViewItem, EntityID: "item-a"})
	require.ErrorIs(t, err, ErrMalformedEvent)

	err = agg.ApplyEvent(v1.Event{ID: "e3", Type: v1.EventSessionEnd, OccurredAt: day(9, 4), DurationSeconds: v1.Duration(-2)})
	require.ErrorIs(t, err, ErrMalformedEvent)

	require.Equal(t, before, agg.View())

	// the aggregator keeps working after a bad event
	require.NoError(t, agg.ApplyEvent(event("e4", v1.EventViewItem, "item-a", day(9, 5))))
	require.Equal(t, int64(2), agg.View().PerEntity[0].ViewCount)
}

func TestAggregator_EventsOutsideWindow(t *testing.T) {
	agg := newTestAggregator()
	old := testNow.Add(-8 * 24 * time.Hour)

	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", old),
		event("e2", v1.EventViewItem, "item-a", day(9, 1)),
	}, 7))
	require.Equal(t, int64(1), agg.View().TotalsByType[v1.EventViewItem])

	err := agg.ApplyEvent(event("e3", v1.EventViewItem, "item-a", old))
	require.ErrorIs(t, err, ErrOutsideWindow)
	require.Equal(t, int64(1), agg.View().TotalsByType[v1.EventViewItem])
}

func TestAggregator_NameResolutionMiss(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-zzz", day(9, 1)),
	}, 7))
	require.Equal(t, DefaultUnknownName, agg.View().PerEntity[0].DisplayName)
	require.Equal(t, DefaultUnknownName, agg.View().RecentActivity[0].DisplayName)

	custom := newTestAggregator(WithUnknownName("Off-menu item"))
	require.NoError(t, custom.Initialize(nil, 7))
	require.NoError(t, custom.ApplyEvent(event("e1", v1.EventAddToCart, "item-yyy", day(9, 1))))
	require.Equal(t, "Off-menu item", custom.View().PerEntity[0].DisplayName)
}

func TestAggregator_ConversionRateWithoutViews(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventAddToCart, "item-b", day(9, 1)),
	}, 7))

	stats := agg.View().PerEntity
	require.Len(t, stats, 1)
	require.Equal(t, int64(0), stats[0].ViewCount)
	require.Equal(t, int64(1), stats[0].CartCount)
	require.Equal(t, float64(0), stats[0].ConversionRate)

	require.NoError(t, agg.ApplyEvent(event("e2", v1.EventAddToCart, "item-c", day(9, 2))))
	for _, s := range agg.View().PerEntity {
		require.Equal(t, float64(0), s.ConversionRate, s.EntityID)
	}
}

func TestAggregator_ApplyingTwiceDoubleCounts(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize(nil, 7))

	evt := event("dup", v1.EventViewItem, "item-a", day(9, 1))
	require.NoError(t, agg.ApplyEvent(evt))
	require.NoError(t, agg.ApplyEvent(evt))

	view := agg.View()
	require.Equal(t, int64(2), view.TotalsByType[v1.EventViewItem])
	require.Equal(t, int64(2), view.PerEntity[0].ViewCount)
	require.Equal(t, int64(2), view.PerDay[0].ViewCount)
	require.Len(t, view.RecentActivity, 2)
}

func TestAggregator_OutOfOrderDayIsInsertedSorted(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", day(5, 1)),
		event("e2", v1.EventViewItem, "item-a", day(8, 1)),
	}, 7))

	require.NoError(t, agg.ApplyEvent(event("e3", v1.EventHotspotClick, "", day(6, 1))))
	require.NoError(t, agg.ApplyEvent(event("e4", v1.EventSessionStart, "", day(4, 1))))
	require.NoError(t, agg.ApplyEvent(event("e5", v1.EventViewItem, "item-a", day(8, 2))))
	require.NoError(t, agg.ApplyEvent(event("e6", v1.EventSessionEnd, "", day(9, 2))))

	keys := make([]string, 0)
	for _, d := range agg.View().PerDay {
		keys = append(keys, d.DayKey)
	}
	require.Equal(t, []string{"2026-03-04", "2026-03-05", "2026-03-06", "2026-03-08", "2026-03-09"}, keys)

	perDay := agg.View().PerDay
	require.Equal(t, int64(1), perDay[0].SessionStartCount)
	require.Equal(t, int64(1), perDay[2].HotspotCount)
	require.Equal(t, int64(2), perDay[3].ViewCount)
	require.Equal(t, int64(1), perDay[4].SessionEndCount)
}

func TestAggregator_DayKeyUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	agg := newTestAggregator(WithLocation(tokyo))
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)),
	}, 7))
	require.Equal(t, "2026-03-09", agg.View().PerDay[0].DayKey)
}

func TestAggregator_EntityOrderBreaksTiesByID(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-c", day(9, 1)),
		event("e2", v1.EventViewItem, "item-a", day(9, 2)),
	}, 7))
	require.Equal(t, "item-a", agg.View().PerEntity[0].EntityID)

	require.NoError(t, agg.ApplyEvent(event("e3", v1.EventViewItem, "item-c", day(9, 3))))
	require.Equal(t, "item-c", agg.View().PerEntity[0].EntityID)

	require.NoError(t, agg.ApplyEvent(event("e4", v1.EventViewItem, "item-b", day(9, 4))))
	require.NoError(t, agg.ApplyEvent(event("e5", v1.EventViewItem, "item-b", day(9, 5))))
	ids := []string{}
	for _, s := range agg.View().PerEntity {
		ids = append(ids, s.EntityID)
	}
	require.Equal(t, []string{"item-b", "item-c", "item-a"}, ids)
}

func TestAggregator_RecentActivityNewestFirst(t *testing.T) {
	agg := newTestAggregator(WithRecentLimit(2))
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e2", v1.EventViewItem, "item-a", day(7, 1)),
		event("e1", v1.EventViewItem, "item-b", day(6, 1)),
		event("e3", v1.EventHotspotClick, "", day(8, 1)),
	}, 7))

	recent := agg.View().RecentActivity
	require.Len(t, recent, 2)
	require.Equal(t, "e3", recent[0].ID)
	require.Equal(t, "e2", recent[1].ID)
	require.Equal(t, "Truffle Burger", recent[1].DisplayName)
	require.Empty(t, recent[0].DisplayName)

	// ApplyEvent does not evict
	require.NoError(t, agg.ApplyEvent(event("e4", v1.EventAddToCart, "item-d", day(9, 1))))
	require.NoError(t, agg.ApplyEvent(event("e5", v1.EventViewItem, "item-d", day(9, 2))))

	recent = agg.View().RecentActivity
	require.Len(t, recent, 4)
	require.Equal(t, "e5", recent[0].ID)
	require.Equal(t, "Yuzu Spritz", recent[0].DisplayName)
	require.Equal(t, "e4", recent[1].ID)

	require.Len(t, agg.View().Recent(3), 3)
	require.Len(t, agg.View().Recent(0), 4)
}

func TestAggregator_ViewIsACopy(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		event("e1", v1.EventViewItem, "item-a", day(9, 1)),
	}, 7))

	view := agg.View()
	view.TotalsByType[v1.EventViewItem] = 99
	view.PerEntity[0].ViewCount = 99
	view.PerDay[0].ViewCount = 99
	view.RecentActivity[0].ID = "mutated"

	fresh := agg.View()
	require.Equal(t, int64(1), fresh.TotalsByType[v1.EventViewItem])
	require.Equal(t, int64(1), fresh.PerEntity[0].ViewCount)
	require.Equal(t, int64(1), fresh.PerDay[0].ViewCount)
	require.Equal(t, "e1", fresh.RecentActivity[0].ID)
}

func TestView_Top(t *testing.T) {
	view := View{PerEntity: []EntityStats{{EntityID: "a"}, {EntityID: "b"}, {EntityID: "c"}}}
	require.Len(t, view.Top(2), 2)
	require.Len(t, view.Top(10), 3)
	require.Len(t, view.Top(0), 3)
}

func TestAggregator_RunningMean(t *testing.T) {
	durations := []float64{12, 30.5, 0, 7.25, 120, 3}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := append([]float64(nil), durations...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		agg := newTestAggregator()
		require.NoError(t, agg.Initialize(nil, 7))
		sum := 0.0
		for i, d := range shuffled {
			require.NoError(t, agg.ApplyEvent(sessionEnd(fmt.Sprintf("s%d", i), day(9, 1), d)))
			sum += d
		}
		// session_end without a duration is counted but does not move the mean
		require.NoError(t, agg.ApplyEvent(event("no-duration", v1.EventSessionEnd, "", day(9, 2))))

		view := agg.View()
		require.InDelta(t, sum/float64(len(durations)), view.AverageSessionEngagementSeconds, 1e-9)
		require.Equal(t, int64(len(durations)+1), view.TotalsByType[v1.EventSessionEnd])
	}
}

func TestAggregator_RunningMeanContinuesFromSnapshot(t *testing.T) {
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize([]v1.Event{
		sessionEnd("s1", day(8, 1), 10),
		sessionEnd("s2", day(8, 2), 20),
		event("s3", v1.EventSessionEnd, "", day(8, 3)),
	}, 7))
	require.InDelta(t, 15.0, agg.View().AverageSessionEngagementSeconds, 1e-9)

	require.NoError(t, agg.ApplyEvent(sessionEnd("s4", day(9, 1), 60)))
	require.InDelta(t, 30.0, agg.View().AverageSessionEngagementSeconds, 1e-9)
}

func randomEvents(rng *rand.Rand, n int) []v1.Event {
	entities := []string{"item-a", "item-b", "item-c", "item-d", "item-unknown", ""}
	windowStart := testNow.Add(-7 * 24 * time.Hour)

	events := make([]v1.Event, 0, n)
	for i := 0; i < n; i++ {
		typ := v1.EventTypes[rng.Intn(len(v1.EventTypes))]
		at := windowStart.Add(time.Duration(rng.Int63n(int64(7 * 24 * time.Hour))))
		evt := event(fmt.Sprintf("evt-%d", i), typ, entities[rng.Intn(len(entities))], at)
		if typ == v1.EventSessionEnd && rng.Intn(4) > 0 {
			evt.DurationSeconds = v1.Duration(float64(rng.Intn(6000)) / 10)
		}
		events = append(events, evt)
	}
	return events
}

func assertSorted(t *testing.T, view View) {
	t.Helper()
	require.True(t, sort.SliceIsSorted(view.PerEntity, func(i, j int) bool {
		return view.PerEntity[i].ViewCount > view.PerEntity[j].ViewCount
	}), "per entity not sorted by view count")
	for i := 1; i < len(view.PerDay); i++ {
		require.Less(t, view.PerDay[i-1].DayKey, view.PerDay[i].DayKey, "per day not strictly ascending")
	}
}

func TestAggregator_SnapshotIncrementalEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))

	for round := 0; round < 25; round++ {
		events := randomEvents(rng, 1+rng.Intn(300))

		batch := newTestAggregator()
		require.NoError(t, batch.Initialize(events, 7))

		incremental := newTestAggregator()
		require.NoError(t, incremental.Initialize(nil, 7))
		for _, evt := range events {
			require.NoError(t, incremental.ApplyEvent(evt))
			assertSorted(t, incremental.View())
		}

		want := batch.View()
		got := incremental.View()
		assert.Equal(t, want.TotalsByType, got.TotalsByType, "round %d totals", round)
		assert.Equal(t, want.PerDay, got.PerDay, "round %d per day", round)
		assert.Equal(t, want.PerEntity, got.PerEntity, "round %d per entity", round)
		assert.InDelta(t, want.AverageSessionEngagementSeconds, got.AverageSessionEngagementSeconds, 1e-6, "round %d mean", round)
		assert.Len(t, got.RecentActivity, len(events))
	}
}

func TestAggregator_SortInvariantAfterSnapshot(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	agg := newTestAggregator()
	require.NoError(t, agg.Initialize(randomEvents(rng, 200), 7))
	assertSorted(t, agg.View())

	for _, evt := range randomEvents(rng, 200) {
		evt.ID = "live-" + evt.ID
		require.NoError(t, agg.ApplyEvent(evt))
		assertSorted(t, agg.View())
	}
}
