package calendar

// Goal is a longer-lived objective. Goals are fetched and referenced by the
// calendar but never mutated by it.
type Goal struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    GoalCategory `json:"category"`
	Status      GoalStatus   `json:"status"`
	Progress    float64      `json:"progress,omitempty"`
	TargetDate  *Timestamp   `json:"target_date,omitempty"`
}

// Active reports whether the goal still needs scheduled work.
func (g Goal) Active() bool {
	return g.Status == GoalActive || g.Status == ""
}

// CloneGoals copies a slice of goals.
func CloneGoals(list []Goal) []Goal {
	if len(list) == 0 {
		return nil
	}
	out := make([]Goal, len(list))
	for i, g := range list {
		if g.TargetDate != nil {
			td := *g.TargetDate
			g.TargetDate = &td
		}
		out[i] = g
	}
	return out
}
