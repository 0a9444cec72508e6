package crew

// Verdict is the outcome of a win evaluation.
type Verdict int

const (
	NoDecision Verdict = iota
	CrewVictory
)

func (v Verdict) String() string {
	if v == CrewVictory {
		return "crew_victory"
	}
	return "no_decision"
}

// EvaluateWin sums task targets and completions across living crewmates
// and declares crew victory once every assigned task is done. A roster
// with no crewmates has a zero target and can never win vacuously.
func EvaluateWin(players []Player) Verdict {
	var total, done int
	for _, p := range players {
		if p.Role != RoleCrewmate || !p.IsAlive {
			continue
		}
		total += p.TotalTasks
		done += p.TasksCompleted
	}
	if total > 0 && done >= total {
		return CrewVictory
	}
	return NoDecision
}
