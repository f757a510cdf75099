// Package printers renders calendar data for the terminal.
package printers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/daypilot/pkg/calendar"
)

const clock = "15:04"

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
	// Width wraps free text. Zero means 80.
	Width int
}

// Interactive reports whether f is a terminal.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) width() int {
	if pp.Width > 0 {
		return pp.Width
	}
	return 80
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	if count != 1 {
		noun += "s"
	}
	_, _ = c.Fprintf(pp.out(), " - %d %s\n", count, noun)
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Day prints the events of one day as a table.
func (pp *PrettyPrint) Day(day time.Time, events []calendar.Event) {
	pp.TitleWithCount(day.Format("Monday, January 2, 2006"), len(events), "event")
	if len(events) == 0 {
		pp.none()
		return
	}
	y := color.New(color.FgHiYellow, color.Faint)
	s := color.New(color.FgGreen)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 50
	for _, e := range events {
		row := []interface{}{}
		if pp.ShowID {
			row = append(row, y.Sprint(e.ID))
		}
		when := fmt.Sprintf("%s-%s", e.Start.Local().Format(clock), e.End.Local().Format(clock))
		synced := ""
		if e.Synced {
			synced = s.Sprint("✓")
		}
		row = append(row, when, e.Title, Type(e.Type), e.Priority, synced)
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Goals prints goals with a progress bar.
func (pp *PrettyPrint) Goals(goals []calendar.Goal) {
	pp.TitleWithCount("Goals", len(goals), "goal")
	if len(goals) == 0 {
		pp.none()
		return
	}
	y := color.New(color.FgHiYellow, color.Faint)
	f := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, g := range goals {
		row := []interface{}{}
		if pp.ShowID {
			row = append(row, y.Sprint(g.ID))
		}
		status := string(g.Status)
		if !g.Active() {
			status = f.Sprint(status)
		}
		due := ""
		if g.TargetDate != nil {
			due = g.TargetDate.Format(calendar.DateLayout)
		}
		row = append(row, g.Title, g.Category, status, Progress(g.Progress, 10), due)
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Wrapped prints text wrapped to the printer width.
func (pp *PrettyPrint) Wrapped(text string) {
	_, _ = fmt.Fprintln(pp.out(), wordwrap.String(text, pp.width()))
}

// Bullets prints an indented list.
func (pp *PrettyPrint) Bullets(items []string) {
	for _, it := range items {
		wrapped := wordwrap.String(it, pp.width()-4)
		_, _ = fmt.Fprintf(pp.out(), "  • %s\n", strings.ReplaceAll(wrapped, "\n", "\n    "))
	}
}

// Type colours an event type.
func Type(t calendar.EventType) string {
	switch t {
	case calendar.TypeMeeting:
		return color.CyanString(string(t))
	case calendar.TypeDeepWork, calendar.TypeFocus:
		return color.MagentaString(string(t))
	case calendar.TypeGoalWork, calendar.TypeLearning:
		return color.GreenString(string(t))
	case calendar.TypeBreak, calendar.TypePersonal:
		return color.BlueString(string(t))
	default:
		return string(t)
	}
}

// Progress renders pct as a bar of width cells.
func Progress(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return fmt.Sprintf("%s%s %3.0f%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), pct)
}
