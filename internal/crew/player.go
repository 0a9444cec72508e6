// Package crew is the multiplayer coordination core: roster generation,
// the game session state machine, the emergency meeting protocol,
// win-condition evaluation and the task completion gateway. It has no
// transport of its own; the server package exposes it over HTTP and the
// bus package carries its notifications.
package crew

// Role is a player's secret assignment, fixed at roster generation.
type Role string

const (
	RoleCrewmate Role = "crewmate"
	RoleImpostor Role = "impostor"
)

// Player is one roster entry.
type Player struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`

	// TasksCompleted only ever grows, and only for crewmates.
	TasksCompleted int `json:"tasksCompleted"`

	// TotalTasks is 0 for impostors; they contribute nothing to either
	// side of the victory fraction.
	TotalTasks int `json:"totalTasks"`

	// IsAlive is reserved for elimination mechanics. Always true today.
	IsAlive bool `json:"isAlive"`

	// JoinedAt is stamped once, in epoch milliseconds, when the player
	// first authenticates into the active session.
	JoinedAt *int64 `json:"joinedAt"`
}

// SessionRecord is the durable session document all contexts agree on.
// Version increases on every write; a context never replaces its view
// with an older snapshot.
type SessionRecord struct {
	Version          int64    `json:"version"`
	IsActive         bool     `json:"isActive"`
	GameStartTime    *int64   `json:"gameStartTime"`
	Players          []Player `json:"players"`
	MeetingActive    bool     `json:"meetingActive"`
	MeetingCaller    *string  `json:"meetingCaller"`
	MeetingStartTime *int64   `json:"meetingStartTime"`
}

// Clone deep-copies the record so callers can hand snapshots out
// without exposing the manager's internal slice.
func (r SessionRecord) Clone() SessionRecord {
	out := r
	out.Players = make([]Player, len(r.Players))
	copy(out.Players, r.Players)
	return out
}

func (r *SessionRecord) player(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// MeetingAlertRecord is the durable meeting alert, written separately
// from the session record so alert-only listeners stay cheap.
type MeetingAlertRecord struct {
	Timestamp int64   `json:"timestamp"`
	Caller    *string `json:"caller,omitempty"`
	Active    bool    `json:"active"`
}

// PlayerProgress is the display summary of one player's task progress.
type PlayerProgress struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	Percent        int    `json:"progress"`
	TasksCompleted int    `json:"tasksCompleted"`
	TotalTasks     int    `json:"totalTasks"`
}
