// Package export writes loaded events in interchange formats.
package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"

	"tableflip.dev/daypilot/pkg/calendar"
)

// ProductID identifies daypilot in exported calendars.
const ProductID = "-//tableflip.dev//daypilot//EN"

// UID is the stable VEVENT uid for an event.
func UID(e calendar.Event) string {
	return fmt.Sprintf("daypilot-%d", e.ID)
}

// ICS writes events as a VCALENDAR. Events that fail validation are
// skipped and reported in the returned error after the rest are written.
func ICS(events []calendar.Event, w io.Writer) error {
	return ICSAt(events, w, time.Now())
}

// ICSAt is ICS with a fixed DTSTAMP.
func ICSAt(events []calendar.Event, w io.Writer, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	list := calendar.CloneEvents(events)
	calendar.SortEvents(list)

	var skipped []int64
	for _, e := range list {
		if err := e.Validate(); err != nil {
			skipped = append(skipped, e.ID)
			continue
		}
		ev := cal.AddEvent(UID(e))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetProperty(ical.ComponentPropertyCategories, string(e.Type))
		if e.Priority != "" {
			ev.SetProperty(ical.ComponentPropertyPriority, icsPriority(e.Priority))
		}
		if e.MeetingURL != "" {
			ev.SetURL(e.MeetingURL)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return errors.Wrap(err, "export: write calendar")
	}
	if len(skipped) > 0 {
		return errors.Errorf("export: skipped invalid events %v", skipped)
	}
	return nil
}

// icsPriority maps to RFC 5545 PRIORITY, where 1 is highest.
func icsPriority(p calendar.Priority) string {
	switch p {
	case calendar.PriorityUrgent:
		return "1"
	case calendar.PriorityHigh:
		return "3"
	case calendar.PriorityLow:
		return "9"
	default:
		return "5"
	}
}
