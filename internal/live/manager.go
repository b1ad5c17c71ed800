package live

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/menulens/menulens/internal/core/analytics"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownWindow is returned for a window no session aggregates.
var ErrUnknownWindow = errors.New("window not configured")

// Manager runs one Session per configured window.
type Manager struct {
	sessions map[int]*Session
	windows  []int
}

// NewManager groups sessions by window day count. Window counts must be unique.
func NewManager(sessions ...*Session) (*Manager, error) {
	m := &Manager{sessions: make(map[int]*Session, len(sessions))}
	for _, s := range sessions {
		days := s.WindowDays()
		if _, dup := m.sessions[days]; dup {
			return nil, fmt.Errorf("duplicate session for %dd window", days)
		}
		m.sessions[days] = s
		m.windows = append(m.windows, days)
	}
	sort.Ints(m.windows)
	return m, nil
}

// Session returns the session for windowDays.
func (m *Manager) Session(windowDays int) (*Session, bool) {
	s, ok := m.sessions[windowDays]
	return s, ok
}

// View returns the state and a copy of the view of the windowDays session.
func (m *Manager) View(windowDays int) (State, analytics.View, error) {
	s, ok := m.sessions[windowDays]
	if !ok {
		return StateUninitialized, analytics.View{}, fmt.Errorf("%w: %dd", ErrUnknownWindow, windowDays)
	}
	return s.Snapshot()
}

// Windows returns the configured window day counts in ascending order.
func (m *Manager) Windows() []int {
	return append([]int(nil), m.windows...)
}

// Statuses returns every session's status in window order.
func (m *Manager) Statuses() []Status {
	out := make([]Status, 0, len(m.windows))
	for _, days := range m.windows {
		out = append(out, m.sessions[days].Status())
	}
	return out
}

// Run runs every session until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, days := range m.windows {
		s := m.sessions[days]
		g.Go(func() error {
			return s.Run(gctx)
		})
	}
	return g.Wait()
}
