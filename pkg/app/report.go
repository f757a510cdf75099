package app

import (
	"sort"
	"time"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/calstate"
)

// ReportSection groups a day's events of one type.
type ReportSection struct {
	Type    calendar.EventType
	Events  []calendar.Event
	Minutes int
}

// DayReport summarises the loaded day.
type DayReport struct {
	Date     time.Time
	Sections []ReportSection
	Total    int
	Minutes  int
	// GoalMinutes counts time linked to a goal or typed as goal work.
	GoalMinutes int
	Synced      int
}

// Report builds a DayReport from a snapshot. Sections are ordered by total
// time, largest first.
func Report(s calstate.Snapshot) DayReport {
	rep := DayReport{Date: s.SelectedDate}
	byType := map[calendar.EventType]*ReportSection{}
	for _, e := range s.Events {
		typ := e.Type
		if typ == "" {
			typ = calendar.TypeTask
		}
		sec, ok := byType[typ]
		if !ok {
			sec = &ReportSection{Type: typ}
			byType[typ] = sec
		}
		mins := int(e.Duration() / time.Minute)
		sec.Events = append(sec.Events, e)
		sec.Minutes += mins
		rep.Total++
		rep.Minutes += mins
		if e.GoalID != nil || typ == calendar.TypeGoalWork {
			rep.GoalMinutes += mins
		}
		if e.Synced {
			rep.Synced++
		}
	}
	for _, sec := range byType {
		rep.Sections = append(rep.Sections, *sec)
	}
	sort.Slice(rep.Sections, func(i, j int) bool {
		if rep.Sections[i].Minutes == rep.Sections[j].Minutes {
			return rep.Sections[i].Type < rep.Sections[j].Type
		}
		return rep.Sections[i].Minutes > rep.Sections[j].Minutes
	})
	return rep
}

// GoalPercent is the share of scheduled time spent on goals.
func (r DayReport) GoalPercent() float64 {
	if r.Minutes == 0 {
		return 0
	}
	return float64(r.GoalMinutes) / float64(r.Minutes) * 100
}
