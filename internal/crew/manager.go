package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crewparty/shiptasks/internal/bus"
	"github.com/crewparty/shiptasks/internal/store"
)

// MeetingDuration is the hard wall-clock cap on an emergency meeting,
// measured from the moment the meeting was called.
const MeetingDuration = 5 * time.Minute

var (
	ErrNotActive = errors.New("no active game")
	ErrNotFound  = errors.New("player not found")
)

// Manager owns the authoritative session view for this process. Every
// mutation persists a whole-record snapshot to the store and publishes
// a bus event, so other contexts converge by replacing their view with
// the last write (no merging). Concurrent writers from different
// instances race at whole-record granularity; the version counter only
// stops a context from regressing to an older snapshot it observes.
type Manager struct {
	store  store.Store
	bus    bus.Bus
	logger *slog.Logger

	mu    sync.Mutex
	state SessionRecord

	// currentPlayer is the id of the most recently authenticated
	// player in this context. Local convenience, never shared truth.
	currentPlayer string

	// meetingGen invalidates auto-end timers from superseded meetings.
	meetingGen int

	meetingTTL time.Duration
	now        func() time.Time
}

type Option func(*Manager)

// WithClock substitutes the time source. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMeetingDuration shortens the meeting cap. Tests use it to observe
// the auto-timeout without waiting five minutes.
func WithMeetingDuration(d time.Duration) Option {
	return func(m *Manager) { m.meetingTTL = d }
}

// NewManager loads the persisted session, falling back to the inactive
// default when no record exists or the record does not parse.
func NewManager(ctx context.Context, st store.Store, b bus.Bus, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:      st,
		bus:        b,
		logger:     logger,
		meetingTTL: MeetingDuration,
		now:        time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.load(ctx)
	return m
}

func (m *Manager) load(ctx context.Context) {
	raw, err := m.store.Get(ctx, store.KeySession)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		m.logger.Warn("reading persisted session", "error", err)
		return
	}

	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		m.logger.Warn("discarding malformed session record", "error", err)
		return
	}
	// An inactive record still carries the version counter, which must
	// keep climbing across restarts so subscribers can order snapshots.
	m.state = rec
}

// persistLocked writes the current state and broadcasts a session
// update. A store failure is degraded to a warning: the in-memory state
// stays authoritative for this context even though durability slipped.
// Callers hold m.mu.
func (m *Manager) persistLocked(ctx context.Context) {
	m.state.Version++

	raw, err := json.Marshal(m.state)
	if err != nil {
		m.logger.Error("encoding session record", "error", err)
		return
	}
	if err := m.store.Put(ctx, store.KeySession, raw); err != nil {
		m.logger.Warn("session not persisted, continuing on in-memory state", "error", err)
	}
	m.bus.Publish(ctx, bus.Event{Kind: bus.KindSessionUpdate, Payload: raw})
}

// StartGame activates a session with the given roster, replacing any
// previous roster outright. An empty roster is rejected.
func (m *Manager) StartGame(ctx context.Context, roster []Player) error {
	if len(roster) == 0 {
		return fmt.Errorf("%w: empty roster", ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]Player, len(roster))
	copy(players, roster)

	start := m.nowMillis()
	m.state = SessionRecord{
		Version:       m.state.Version,
		IsActive:      true,
		Players:       players,
		GameStartTime: &start,
	}
	m.currentPlayer = ""
	m.meetingGen++
	m.persistLocked(ctx)

	m.logger.Info("game started", "players", len(players), "impostors", countImpostors(players))
	return nil
}

// LoginPlayer authenticates a player id into the active session. An
// unknown id or an inactive session is the ordinary "wrong code" path
// and reports ErrNotFound.
func (m *Manager) LoginPlayer(ctx context.Context, playerID string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsActive {
		return Player{}, fmt.Errorf("%w: game not active", ErrNotFound)
	}
	p := m.state.player(playerID)
	if p == nil {
		return Player{}, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}

	if p.JoinedAt == nil {
		joined := m.nowMillis()
		p.JoinedAt = &joined
	}
	m.currentPlayer = p.ID
	m.persistLocked(ctx)
	return *p, nil
}

// ReportProgress increments a crewmate's completed-task counter by
// exactly one. There is deliberately no de-duplication here; the
// completion gateway owns that, keyed per player and task. Reports for
// impostors are silently absorbed.
func (m *Manager) ReportProgress(ctx context.Context, playerID, taskID string) (Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsActive {
		return NoDecision, ErrNotActive
	}
	p := m.state.player(playerID)
	if p == nil {
		return NoDecision, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	if p.Role != RoleCrewmate {
		return NoDecision, nil
	}

	p.TasksCompleted++
	m.persistLocked(ctx)

	verdict := EvaluateWin(m.state.Players)
	if verdict == CrewVictory {
		m.logger.Info("crew victory", "player", playerID, "task", taskID)
	}
	return verdict, nil
}

// CallMeeting starts an emergency meeting and schedules the automatic
// end MeetingDuration after the call. callerID may be empty for an
// anonymous alarm.
func (m *Manager) CallMeeting(ctx context.Context, callerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsActive {
		return ErrNotActive
	}

	start := m.nowMillis()
	m.state.MeetingActive = true
	m.state.MeetingStartTime = &start
	m.state.MeetingCaller = nil
	if callerID != "" {
		m.state.MeetingCaller = &callerID
	}
	m.meetingGen++
	gen := m.meetingGen

	m.persistLocked(ctx)
	m.writeAlertLocked(ctx, MeetingAlertRecord{
		Timestamp: start,
		Caller:    m.state.MeetingCaller,
		Active:    true,
	}, bus.KindMeetingAlert)

	// The timer must yield to a manual end or a newer meeting; the
	// generation check inside autoEnd handles both.
	time.AfterFunc(m.meetingTTL, func() {
		m.autoEnd(context.Background(), gen)
	})

	m.logger.Info("emergency meeting called", "caller", callerID)
	return nil
}

func (m *Manager) autoEnd(ctx context.Context, gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.MeetingActive || gen != m.meetingGen {
		return
	}
	m.endMeetingLocked(ctx)
	m.logger.Info("emergency meeting timed out")
}

// EndMeeting clears the meeting state. Ending a meeting that is not in
// progress is a no-op.
func (m *Manager) EndMeeting(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.MeetingActive {
		return nil
	}
	m.endMeetingLocked(ctx)
	return nil
}

func (m *Manager) endMeetingLocked(ctx context.Context) {
	m.state.MeetingActive = false
	m.state.MeetingCaller = nil
	m.meetingGen++
	m.persistLocked(ctx)
	m.writeAlertLocked(ctx, MeetingAlertRecord{
		Timestamp: m.nowMillis(),
		Active:    false,
	}, bus.KindMeetingEnd)
}

func (m *Manager) writeAlertLocked(ctx context.Context, rec MeetingAlertRecord, kind string) {
	raw, err := json.Marshal(rec)
	if err != nil {
		m.logger.Error("encoding meeting alert", "error", err)
		return
	}
	if err := m.store.Put(ctx, store.KeyMeetingAlert, raw); err != nil {
		m.logger.Warn("meeting alert not persisted", "error", err)
	}
	m.bus.Publish(ctx, bus.Event{Kind: kind, Payload: raw})
}

// MeetingRemaining is the countdown for display, clamped at zero.
func (m *Manager) MeetingRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.MeetingActive || m.state.MeetingStartTime == nil {
		return 0
	}
	elapsed := m.now().UnixMilli() - *m.state.MeetingStartTime
	remaining := m.meetingTTL - time.Duration(elapsed)*time.Millisecond
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset returns to the inactive default from any state and clears the
// persisted meeting alert.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = SessionRecord{Version: m.state.Version}
	m.currentPlayer = ""
	m.meetingGen++
	m.persistLocked(ctx)

	if err := m.store.Delete(ctx, store.KeyMeetingAlert); err != nil {
		m.logger.Warn("clearing meeting alert", "error", err)
	}
	m.logger.Info("game reset")
}

// Snapshot returns a deep copy of the session record.
func (m *Manager) Snapshot() SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// CurrentPlayer returns the most recently authenticated player in this
// context, if any.
func (m *Manager) CurrentPlayer() (Player, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentPlayer == "" {
		return Player{}, false
	}
	p := m.state.player(m.currentPlayer)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Progress summarizes every player's task completion for display.
// Impostors always show zero so their cover holds on shared screens.
func (m *Manager) Progress() []PlayerProgress {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PlayerProgress, 0, len(m.state.Players))
	for _, p := range m.state.Players {
		pp := PlayerProgress{
			ID:             p.ID,
			Role:           p.Role,
			TasksCompleted: p.TasksCompleted,
			TotalTasks:     p.TotalTasks,
		}
		if p.Role == RoleCrewmate && p.TotalTasks > 0 {
			// Rounded to the nearest point, so 5 of 12 reads 42%.
			pp.Percent = (p.TasksCompleted*100 + p.TotalTasks/2) / p.TotalTasks
		}
		out = append(out, pp)
	}
	return out
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

func countImpostors(players []Player) int {
	n := 0
	for _, p := range players {
		if p.Role == RoleImpostor {
			n++
		}
	}
	return n
}
