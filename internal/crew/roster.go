package crew

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// MinPlayers is the smallest roster the game supports.
	MinPlayers = 3

	// TasksPerCrewmate is each crewmate's fixed task target.
	TasksPerCrewmate = 12
)

var ErrInvalidArgument = errors.New("invalid argument")

// ImpostorCount returns the number of impostors for a roster size.
// Note 4 players fall through to the floor division: 4/4 = 1.
func ImpostorCount(playerCount int) int {
	if playerCount < 4 {
		return 1
	}
	if playerCount >= 5 && playerCount <= 8 {
		return 2
	}
	return playerCount / 4
}

// GenerateRoster builds playerCount players with sequential zero-padded
// ids and assigns impostor roles to a uniform random subset. The
// returned slice keeps id order for display; only roles and task
// targets differ between calls.
func GenerateRoster(playerCount int) ([]Player, error) {
	if playerCount < MinPlayers {
		return nil, fmt.Errorf("%w: roster needs at least %d players, got %d",
			ErrInvalidArgument, MinPlayers, playerCount)
	}

	players := make([]Player, playerCount)
	for i := range players {
		players[i] = Player{
			ID:         fmt.Sprintf("P%02d", i+1),
			Role:       RoleCrewmate,
			TotalTasks: TasksPerCrewmate,
			IsAlive:    true,
		}
	}

	// Fisher-Yates over a copy of the slot indexes, so the canonical
	// ordering above is never disturbed. The first impostorCount slots
	// of the permutation get the impostor role.
	idx := make([]int, playerCount)
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	for _, slot := range idx[:ImpostorCount(playerCount)] {
		players[slot].Role = RoleImpostor
		players[slot].TotalTasks = 0
	}

	return players, nil
}
