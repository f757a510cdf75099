package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	segmentPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]*)`)
	unitMinutes    = map[string]int{
		"":        1,
		"m":       1,
		"min":     1,
		"mins":    1,
		"minute":  1,
		"minutes": 1,
		"h":       60,
		"hr":      60,
		"hrs":     60,
		"hour":    60,
		"hours":   60,
	}
)

// ParseMinutes parses a human-friendly duration such as "90", "45m", "2h" or
// "1h30m" and returns it in whole minutes. A bare number is minutes.
func ParseMinutes(input string) (int, error) {
	remaining := strings.ToLower(strings.TrimSpace(input))
	if remaining == "" {
		return 0, fmt.Errorf("empty duration")
	}

	total := 0
	for len(remaining) > 0 {
		matches := segmentPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return 0, fmt.Errorf("invalid duration segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q: %w", matches[1], err)
		}
		per, ok := unitMinutes[matches[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported duration unit %q", matches[2])
		}
		// a bare number only stands alone
		if matches[2] == "" && (total > 0 || len(remaining) > len(matches[0])) {
			return 0, fmt.Errorf("duration %q needs units", input)
		}
		total += value * per
		remaining = strings.TrimSpace(remaining[len(matches[0]):])
	}

	if total <= 0 {
		return 0, fmt.Errorf("duration must be greater than zero")
	}
	return total, nil
}

// FormatMinutes renders n minutes as "45m" or "1h05m".
func FormatMinutes(n int) string {
	if n < 60 {
		return fmt.Sprintf("%dm", n)
	}
	return fmt.Sprintf("%dh%02dm", n/60, n%60)
}

// MinutesFlag is a flag value holding minutes that accepts ParseMinutes input.
type MinutesFlag struct {
	Target *int
}

func (f MinutesFlag) String() string {
	if f.Target == nil {
		return "0"
	}
	return strconv.Itoa(*f.Target)
}

func (f MinutesFlag) Set(s string) error {
	n, err := ParseMinutes(s)
	if err != nil {
		return err
	}
	*f.Target = n
	return nil
}

func (f MinutesFlag) Type() string { return "duration" }
