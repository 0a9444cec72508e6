package crew

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/crewparty/shiptasks/internal/store"
)

// Gateway is the single inbound surface mini-games report completions
// through. The session layer counts every report it receives, so the
// gateway must absorb duplicates: it keeps a per-player completed set,
// persisted under its own durable key, and forwards each task at most
// once. Mini-games fire and forget; nothing here returns an error to
// them.
type Gateway struct {
	manager *Manager
	store   store.Store
	logger  *slog.Logger

	mu   sync.Mutex
	done map[string]map[string]bool // playerID -> completed task ids
}

func NewGateway(m *Manager, st store.Store, logger *slog.Logger) *Gateway {
	return &Gateway{
		manager: m,
		store:   st,
		logger:  logger,
		done:    make(map[string]map[string]bool),
	}
}

// Complete records a finished task for a player. The first report of a
// task forwards to the session; repeats are silently absorbed. Failures
// are logged and swallowed so a mini-game's success path never breaks.
func (g *Gateway) Complete(ctx context.Context, playerID, taskID string) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.done[playerID]
	if set == nil {
		set = g.loadSet(ctx, playerID)
		g.done[playerID] = set
	}
	if set[taskID] {
		return NoDecision
	}

	verdict, err := g.manager.ReportProgress(ctx, playerID, taskID)
	if err != nil {
		g.logger.Warn("task completion not recorded",
			"player", playerID, "task", taskID, "error", err)
		return NoDecision
	}

	set[taskID] = true
	g.persistSet(ctx, playerID, set)
	return verdict
}

// Completed reports whether a player has already finished a task.
func (g *Gateway) Completed(ctx context.Context, playerID, taskID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.done[playerID]
	if set == nil {
		set = g.loadSet(ctx, playerID)
		g.done[playerID] = set
	}
	return set[taskID]
}

// Reset drops every completed set, in memory and in the store, for the
// players of the current session plus any player seen since startup.
func (g *Gateway) Reset(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make(map[string]bool, len(g.done))
	for id := range g.done {
		ids[id] = true
	}
	for _, p := range g.manager.Snapshot().Players {
		ids[p.ID] = true
	}
	for id := range ids {
		if err := g.store.Delete(ctx, store.TaskSetKey(id)); err != nil {
			g.logger.Warn("clearing completed tasks", "player", id, "error", err)
		}
	}
	g.done = make(map[string]map[string]bool)
}

func (g *Gateway) loadSet(ctx context.Context, playerID string) map[string]bool {
	set := make(map[string]bool)

	raw, err := g.store.Get(ctx, store.TaskSetKey(playerID))
	if errors.Is(err, store.ErrNotFound) {
		return set
	}
	if err != nil {
		g.logger.Warn("reading completed tasks", "player", playerID, "error", err)
		return set
	}

	var tasks []string
	if err := json.Unmarshal(raw, &tasks); err != nil {
		g.logger.Warn("discarding malformed task set", "player", playerID, "error", err)
		return set
	}
	for _, t := range tasks {
		set[t] = true
	}
	return set
}

func (g *Gateway) persistSet(ctx context.Context, playerID string, set map[string]bool) {
	tasks := make([]string, 0, len(set))
	for t := range set {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)

	raw, err := json.Marshal(tasks)
	if err != nil {
		g.logger.Error("encoding task set", "player", playerID, "error", err)
		return
	}
	if err := g.store.Put(ctx, store.TaskSetKey(playerID), raw); err != nil {
		g.logger.Warn("task set not persisted", "player", playerID, "error", err)
	}
}
