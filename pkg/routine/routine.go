// Package routine holds the user's fixed daily anchors. The rendered context
// string is attached to every assistant request so scheduled work avoids
// sleep, meals, work hours and exercise.
package routine

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const clockLayout = "15:04"

// Settings is the user's daily rhythm. Clock fields are HH:MM.
type Settings struct {
	WakeTime          string `json:"wake_time"`
	SleepTime         string `json:"sleep_time"`
	LunchTime         string `json:"lunch_time"`
	DinnerTime        string `json:"dinner_time"`
	WorkStart         string `json:"work_start"`
	WorkEnd           string `json:"work_end"`
	GymTime           string `json:"gym_time"`
	BreakMinutes      int    `json:"break_duration"`
	FocusBlockMinutes int    `json:"focus_block_duration"`
}

// Default returns the settings used before the user has saved any.
func Default() Settings {
	return Settings{
		WakeTime:          "07:00",
		SleepTime:         "23:00",
		LunchTime:         "12:30",
		DinnerTime:        "19:00",
		WorkStart:         "09:00",
		WorkEnd:           "17:00",
		GymTime:           "18:00",
		BreakMinutes:      15,
		FocusBlockMinutes: 90,
	}
}

func (s Settings) clocks() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"wake_time", s.WakeTime},
		{"sleep_time", s.SleepTime},
		{"lunch_time", s.LunchTime},
		{"dinner_time", s.DinnerTime},
		{"work_start", s.WorkStart},
		{"work_end", s.WorkEnd},
		{"gym_time", s.GymTime},
	}
}

// Validate checks clock formats, work hour ordering and durations.
func (s Settings) Validate() error {
	for _, c := range s.clocks() {
		if _, err := time.Parse(clockLayout, c.value); err != nil {
			return errors.Errorf("routine: %s %q is not HH:MM", c.name, c.value)
		}
	}
	start, _ := time.Parse(clockLayout, s.WorkStart)
	end, _ := time.Parse(clockLayout, s.WorkEnd)
	if !start.Before(end) {
		return errors.Errorf("routine: work_start %s must be before work_end %s", s.WorkStart, s.WorkEnd)
	}
	if s.BreakMinutes <= 0 {
		return errors.New("routine: break_duration must be positive")
	}
	if s.FocusBlockMinutes <= 0 {
		return errors.New("routine: focus_block_duration must be positive")
	}
	return nil
}

// Merge fills unset fields from Default, so partially written blobs still
// produce usable settings.
func (s Settings) Merge() Settings {
	d := Default()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&s.WakeTime, d.WakeTime)
	fill(&s.SleepTime, d.SleepTime)
	fill(&s.LunchTime, d.LunchTime)
	fill(&s.DinnerTime, d.DinnerTime)
	fill(&s.WorkStart, d.WorkStart)
	fill(&s.WorkEnd, d.WorkEnd)
	fill(&s.GymTime, d.GymTime)
	if s.BreakMinutes == 0 {
		s.BreakMinutes = d.BreakMinutes
	}
	if s.FocusBlockMinutes == 0 {
		s.FocusBlockMinutes = d.FocusBlockMinutes
	}
	return s
}

// Context renders the settings in the form the assistant parses.
func (s Settings) Context() string {
	return fmt.Sprintf("Wake: %s, Work: %s-%s, Lunch: %s, Dinner: %s, Gym: %s, Sleep: %s, Breaks: %dm, Focus blocks: %dm",
		s.WakeTime, s.WorkStart, s.WorkEnd, s.LunchTime, s.DinnerTime, s.GymTime, s.SleepTime,
		s.BreakMinutes, s.FocusBlockMinutes)
}

// Set assigns a field by its JSON name. Used by the CLI.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "wake_time", "wake":
		s.WakeTime = value
	case "sleep_time", "sleep":
		s.SleepTime = value
	case "lunch_time", "lunch":
		s.LunchTime = value
	case "dinner_time", "dinner":
		s.DinnerTime = value
	case "work_start":
		s.WorkStart = value
	case "work_end":
		s.WorkEnd = value
	case "gym_time", "gym":
		s.GymTime = value
	case "break_duration", "breaks":
		return setMinutes(&s.BreakMinutes, key, value)
	case "focus_block_duration", "focus":
		return setMinutes(&s.FocusBlockMinutes, key, value)
	default:
		return errors.Errorf("routine: unknown setting %q", key)
	}
	return nil
}

func setMinutes(dst *int, key, value string) error {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSuffix(value, "m"), "%d", &n); err != nil {
		return errors.Wrapf(err, "routine: %s wants minutes", key)
	}
	*dst = n
	return nil
}
