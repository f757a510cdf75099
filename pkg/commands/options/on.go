package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/daypilot/pkg/calendar"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// OnOptions selects a day.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "date", "",
		`Specify a date, example: --date="2020-2-28", --date="2/28" or --date=tomorrow.`)
}

// GetOn returns the chosen day, or today when none was given.
func (o *OnOptions) GetOn() (time.Time, error) {
	return ParseDay(o.OnString, time.Now())
}

// ParseDay reads a day relative to now.
func ParseDay(s string, now time.Time) (time.Time, error) {
	today := calendar.Day(now)
	switch s {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(layoutISO, s, now.Location())
	if err != nil {
		// Let the year be the same.
		t, err = time.ParseInLocation(layoutISOShort, s, now.Location())
		if err != nil {
			return time.Time{}, err
		}
		t = t.AddDate(now.Year(), 0, 0)
	}
	return calendar.Day(t), nil
}
