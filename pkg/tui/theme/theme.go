package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"tableflip.dev/daypilot/pkg/calendar"
)

// Theme centralizes Lip Gloss styles for the day view.
type Theme struct {
	Footer FooterTheme
	Panel  PanelTheme
	Day    DayTheme
	Chat   ChatTheme
	Modal  ModalTheme
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// PanelTheme styles framed panels and headings.
type PanelTheme struct {
	Frame        lipgloss.Style
	FocusedFrame lipgloss.Style
	Title        lipgloss.Style
	Body         lipgloss.Style
}

// DayTheme styles the event list.
type DayTheme struct {
	Time     lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Synced   lipgloss.Style
	Empty    lipgloss.Style
	Types    map[calendar.EventType]lipgloss.Style
}

// ChatTheme styles the assistant conversation.
type ChatTheme struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Pending   lipgloss.Style
}

// ModalTheme styles centered overlays.
type ModalTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
}

// TypeStyle returns the style for an event type.
func (d DayTheme) TypeStyle(t calendar.EventType) lipgloss.Style {
	if s, ok := d.Types[t]; ok {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return Theme{
		Footer: FooterTheme{
			Help:   fg("245"),
			Status: fg("244"),
			Error:  fg("203").Bold(true),
		},
		Panel: PanelTheme{
			Frame:        frame,
			FocusedFrame: frame.BorderForeground(lipgloss.Color("212")),
			Title:        lipgloss.NewStyle().Bold(true),
			Body:         lipgloss.NewStyle(),
		},
		Day: DayTheme{
			Time:     fg("109"),
			Title:    lipgloss.NewStyle(),
			Selected: lipgloss.NewStyle().Reverse(true),
			Synced:   fg("114"),
			Empty:    fg("241").Italic(true),
			Types:    typePalette(),
		},
		Chat: ChatTheme{
			User:      fg("81").Bold(true),
			Assistant: fg("114").Bold(true),
			Pending:   fg("241").Italic(true),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				Padding(1, 2),
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
		},
	}
}

// typePalette gives every event type its own hue, darker on light terminals.
func typePalette() map[calendar.EventType]lipgloss.Style {
	types := calendar.AllEventTypes()
	out := make(map[calendar.EventType]lipgloss.Style, len(types))
	step := 360.0 / float64(len(types))
	for i, t := range types {
		hue := float64(i) * step
		out[t] = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
			Light: colorful.Hcl(hue, 0.55, 0.45).Clamped().Hex(),
			Dark:  colorful.Hcl(hue, 0.45, 0.78).Clamped().Hex(),
		})
	}
	return out
}
