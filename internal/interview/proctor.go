package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hireflow/hireflow/internal/hiring"
)

const (
	// debounceWindow coalesces duplicate client events (double-fires) into one.
	debounceWindow = time.Second
	// terminationThreshold is the number of counted tab switches that ends
	// the interview.
	terminationThreshold = 3

	terminationReason = "Excessive tab switching"
)

// transitioner is the slice of the store the monitor needs.
type transitioner interface {
	ApplyTransition(ctx context.Context, applicationID uint, tr hiring.Transition) error
}

// TabSwitchResult reports the outcome of recording one tab-switch event.
type TabSwitchResult struct {
	Count      int
	Duplicate  bool
	Terminated bool
}

// Monitor tracks proctoring signals for live interview sessions and drives
// the application to Terminated once the threshold is reached.
type Monitor struct {
	sessions *SessionStore
	store    transitioner
	logger   *zap.Logger
}

// NewMonitor creates a proctoring monitor over the given session store.
func NewMonitor(sessions *SessionStore, store transitioner, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{sessions: sessions, store: store, logger: logger}
}

// RecordTabSwitch records one tab-switch event for the session identified by
// token. The debounce check, counter increment and flag append happen as one
// atomic unit under the session lock, so two near-simultaneous requests for
// the same session cannot both count. The terminating persistence call runs
// outside the lock.
func (m *Monitor) RecordTabSwitch(ctx context.Context, token string, now time.Time) (*TabSwitchResult, error) {
	session, err := m.sessions.Get(token)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()

	if session.terminated {
		session.mu.Unlock()
		return nil, ErrNoActiveInterview
	}

	if !session.LastTabSwitch.IsZero() && now.Sub(session.LastTabSwitch) < debounceWindow {
		count := session.TabSwitchCount
		session.mu.Unlock()
		m.logger.Debug("duplicate tab switch ignored",
			zap.Uint("application_id", session.ApplicationID),
			zap.Int("count", count),
		)
		return &TabSwitchResult{Count: count, Duplicate: true}, nil
	}

	session.LastTabSwitch = now
	session.TabSwitchCount++
	session.ProctoringFlags = append(session.ProctoringFlags, flagFor(now))

	count := session.TabSwitchCount

	if count < terminationThreshold {
		session.mu.Unlock()
		m.logger.Info("tab switch recorded",
			zap.Uint("application_id", session.ApplicationID),
			zap.Int("count", count),
		)
		return &TabSwitchResult{Count: count}, nil
	}

	// Threshold reached: mark the session dead under the lock so a racing
	// request cannot count a fourth event, then persist outside the lock.
	// The session is destroyed only after the transition commits; a failed
	// commit keeps the flags around instead of losing them.
	session.terminated = true
	flags := append([]string(nil), session.ProctoringFlags...)
	applicationID := session.ApplicationID
	session.mu.Unlock()

	snapshot, err := json.Marshal(hiring.TerminationSnapshot{
		TerminationReason: terminationReason,
		ProctoringFlags:   flags,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal termination snapshot: %w", err)
	}

	if err := m.store.ApplyTransition(ctx, applicationID, hiring.Terminate(string(snapshot))); err != nil {
		return nil, fmt.Errorf("terminate application %d: %w", applicationID, err)
	}

	m.sessions.Destroy(token)

	m.logger.Warn("interview terminated by proctoring",
		zap.Uint("application_id", applicationID),
		zap.Int("tab_switches", count),
	)

	return &TabSwitchResult{Count: count, Terminated: true}, nil
}

func flagFor(now time.Time) string {
	return "Tab switch at " + now.UTC().Format(time.RFC3339)
}
