// Package tui is the terminal day view: the selected day's events beside an
// assistant conversation, driven by store snapshots.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/timeutil"
	"tableflip.dev/daypilot/pkg/tui/theme"
)

type mode int

const (
	modeDay mode = iota
	modeCreate
	modeEdit
	modeAssistant
	modeReport
)

type (
	snapshotMsg calstate.Snapshot
	chatMsg     struct{}
	opMsg       struct {
		op   string
		text string
		err  error
	}
)

var nowFunc = time.Now

const (
	headerHeight = 1
	footerHeight = 2
)

// Model is the Bubble Tea model for the day view.
type Model struct {
	orch  *app.Orchestrator
	ctx   context.Context
	theme theme.Theme
	keys  keyMap

	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	chat    viewport.Model

	snap    calstate.Snapshot
	cursor  int
	editing int64
	status  string
	history int

	snaps       <-chan calstate.Snapshot
	chatChanged <-chan struct{}

	termWidth  int
	termHeight int
}

// New builds a Model over orch. The model's subscription ends with ctx.
func New(ctx context.Context, orch *app.Orchestrator) Model {
	in := textinput.New()
	in.CharLimit = 500
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		orch:        orch,
		ctx:         ctx,
		theme:       theme.Default(),
		keys:        defaultKeys(),
		help:        help.New(),
		spinner:     sp,
		input:       in,
		chat:        viewport.New(40, 10),
		snap:        orch.Snapshot(),
		snaps:       orch.Store().Subscribe(ctx),
		chatChanged: orch.Chat().Changed(),
	}
}

// WithHistory makes Init load up to n earlier chat messages.
func (m Model) WithHistory(n int) Model {
	m.history = n
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitSnapshot(m.snaps),
		waitChat(m.ctx, m.chatChanged),
		m.spinner.Tick,
		m.run("load", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			return "", o.Reload(ctx)
		}),
	}
	if m.history > 0 {
		n := m.history
		cmds = append(cmds, m.run("history", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			return "", o.LoadChatHistory(ctx, n)
		}))
	}
	return tea.Batch(cmds...)
}

func waitSnapshot(ch <-chan calstate.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func waitChat(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return chatMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// run executes an orchestrator operation off the update loop.
func (m Model) run(op, okText string, fn func(ctx context.Context, o *app.Orchestrator) (string, error)) tea.Cmd {
	ctx, orch := m.ctx, m.orch
	return func() tea.Msg {
		text, err := fn(ctx, orch)
		if text == "" {
			text = okText
		}
		return opMsg{op: op, text: text, err: err}
	}
}

func (m Model) mode() mode {
	switch mo := m.snap.Modals; {
	case mo.Create:
		return modeCreate
	case mo.Edit:
		return modeEdit
	case mo.Report:
		return modeReport
	case mo.Assistant:
		return modeAssistant
	}
	return modeDay
}

func (m *Model) toggle(modal calstate.Modal, visible bool) {
	_ = m.orch.ToggleModal(modal, visible)
	m.snap = m.orch.Snapshot()
}

func (m *Model) selected() (calendar.Event, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Events) {
		return calendar.Event{}, false
	}
	return m.snap.Events[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.applySizes()
		return m, nil

	case snapshotMsg:
		m.snap = calstate.Snapshot(msg)
		m.clampCursor()
		return m, waitSnapshot(m.snaps)

	case chatMsg:
		m.refreshChat()
		return m, waitChat(m.ctx, m.chatChanged)

	case opMsg:
		// failures show through the store's error slot, or in the
		// conversation for chat
		m.status = ""
		if msg.err == nil {
			m.status = msg.text
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode() {
		case modeCreate, modeEdit:
			return m.updateForm(msg)
		case modeReport:
			if key.Matches(msg, m.keys.Back, m.keys.Report, m.keys.Quit) {
				m.toggle(calstate.ModalReport, false)
			}
			return m, nil
		case modeAssistant:
			if m.input.Focused() {
				return m.updateAssistant(msg)
			}
		}
		return m.updateDay(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	day := m.snap.SelectedDate

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, k.Down):
		if m.cursor < len(m.snap.Events)-1 {
			m.cursor++
		}
	case key.Matches(msg, k.PrevDay):
		return m.selectDay(day.AddDate(0, 0, -1))
	case key.Matches(msg, k.NextDay):
		return m.selectDay(day.AddDate(0, 0, 1))
	case key.Matches(msg, k.Today):
		return m.selectDay(calendar.Day(nowFunc()))
	case key.Matches(msg, k.Refresh):
		return m, m.run("load", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			return "", o.Reload(ctx)
		})
	case key.Matches(msg, k.New):
		m.toggle(calstate.ModalCreate, true)
		m.input.Reset()
		m.input.Placeholder = "Title, optionally ending in minutes, e.g. Write report 90"
		return m, m.input.Focus()
	case key.Matches(msg, k.Edit):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = e.ID
		m.toggle(calstate.ModalEdit, true)
		m.input.SetValue(e.Title)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, k.Delete):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.status = "Deleting " + e.Title + "…"
		return m, m.run("delete", "Deleted "+e.Title, func(ctx context.Context, o *app.Orchestrator) (string, error) {
			res, err := o.Remove(ctx, e.ID)
			if res.ProviderError != "" {
				return "Deleted " + e.Title + ", provider copy kept", err
			}
			return "", err
		})
	case key.Matches(msg, k.Sync):
		m.status = "Syncing…"
		return m, m.run("sync", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			sum, err := o.SyncProvider(ctx)
			return fmt.Sprintf("Synced %d events", sum.EventsSynced), err
		})
	case key.Matches(msg, k.Goals):
		m.status = "Scheduling goal work…"
		return m, m.run("schedule-goals", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			res, err := o.BulkScheduleFromGoals(ctx, app.DefaultDaysAhead)
			return fmt.Sprintf("Scheduled %d sessions for %d goals", len(res.Events), res.GoalsProcessed), err
		})
	case key.Matches(msg, k.Assistant):
		if m.mode() == modeAssistant {
			m.input.Reset()
			return m, m.input.Focus()
		}
		m.toggle(calstate.ModalAssistant, true)
		m.input.Reset()
		m.input.Placeholder = "Ask the assistant…"
		m.applySizes()
		m.refreshChat()
		return m, m.input.Focus()
	case key.Matches(msg, k.Report):
		m.toggle(calstate.ModalReport, true)
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Back):
		if m.mode() == modeAssistant {
			m.toggle(calstate.ModalAssistant, false)
			m.applySizes()
		}
		m.orch.ClearError()
		m.status = ""
	}
	return m, nil
}

func (m Model) selectDay(day time.Time) (tea.Model, tea.Cmd) {
	m.cursor = 0
	return m, m.run("load", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
		return "", o.SelectDate(ctx, day)
	})
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal := calstate.ModalCreate
	if m.mode() == modeEdit {
		modal = calstate.ModalEdit
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		m.toggle(modal, false)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		m.input.Blur()
		m.toggle(modal, false)
		if modal == calstate.ModalEdit {
			id := m.editing
			m.status = "Saving…"
			return m, m.run("edit", "Saved", func(ctx context.Context, o *app.Orchestrator) (string, error) {
				_, err := o.Edit(ctx, id, calendar.Patch{Title: &value})
				return "", err
			})
		}
		d := quickDraft(value)
		m.status = "Asking the assistant to schedule " + d.Title + "…"
		return m, m.run("create", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			res, err := o.Create(ctx, d)
			return fmt.Sprintf("Scheduled %d events", len(res.Events)), err
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateAssistant(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.run("chat", "", func(ctx context.Context, o *app.Orchestrator) (string, error) {
			_, err := o.AssistantChat(ctx, text)
			return "", err
		})
	case msg.String() == "pgup" || msg.String() == "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// quickDraft reads "title [duration]". A trailing token such as 90, 45m or
// 1h30m is the duration.
func quickDraft(s string) calendar.Draft {
	fields := strings.Fields(s)
	d := calendar.Draft{Title: s}
	if n := len(fields); n > 1 {
		if mins, err := timeutil.ParseMinutes(fields[n-1]); err == nil {
			d.Title = strings.Join(fields[:n-1], " ")
			d.DurationMinutes = mins
		}
	}
	return d.Normalize()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Events) {
		m.cursor = len(m.snap.Events) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) applySizes() {
	m.help.Width = m.termWidth
	_, chatW := m.paneWidths()
	body := m.bodyHeight()
	m.chat.Width = max(chatW-4, 10)
	m.chat.Height = max(body-5, 3)
	m.input.Width = max(chatW-8, 10)
	m.refreshChat()
}

func (m Model) bodyHeight() int {
	return max(m.termHeight-headerHeight-footerHeight, 5)
}

// paneWidths splits the terminal between the day panel and the chat pane.
func (m Model) paneWidths() (day, chat int) {
	w := max(m.termWidth, 40)
	if !m.snap.Modals.Assistant {
		return w, 0
	}
	day = w * 2 / 5
	return day, w - day
}

func (m *Model) refreshChat() {
	width := max(m.chat.Width, 10)
	var b strings.Builder
	for i, msg := range m.orch.Chat().Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		label := m.theme.Chat.Assistant.Render("pilot")
		if msg.Role == calendar.RoleUser {
			label = m.theme.Chat.User.Render("you")
		}
		content := wordwrap.String(msg.Content, width)
		if msg.Pending {
			content = m.theme.Chat.Pending.Render(content)
		}
		b.WriteString(label + "\n" + content + "\n")
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m Model) View() string {
	header := m.renderHeader()
	dayW, chatW := m.paneWidths()
	body := m.renderDay(dayW, m.bodyHeight())
	if chatW > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderChat(chatW, m.bodyHeight()))
	}

	switch m.mode() {
	case modeCreate, modeEdit:
		body = m.overlay(m.renderForm())
	case modeReport:
		body = m.overlay(m.renderReport())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderHeader() string {
	title := m.theme.Panel.Title.Render(m.snap.SelectedDate.Format("Monday, January 2, 2006"))
	if m.snap.Loading {
		title += " " + m.spinner.View()
	}
	return title
}

func (m Model) renderDay(width, height int) string {
	frame := m.theme.Panel.Frame
	if !m.input.Focused() {
		frame = m.theme.Panel.FocusedFrame
	}
	inner := max(width-frame.GetHorizontalFrameSize(), 10)

	var lines []string
	if len(m.snap.Events) == 0 {
		lines = append(lines, m.theme.Day.Empty.Render("Nothing scheduled. Press n to add something."))
	}
	for i, e := range m.snap.Events {
		when := fmt.Sprintf("%s-%s", e.Start.Local().Format("15:04"), e.End.Local().Format("15:04"))
		mark := " "
		if e.Synced {
			mark = m.theme.Day.Synced.Render("•")
		}
		typ := m.theme.Day.TypeStyle(e.Type).Render(string(e.Type))
		room := inner - lipgloss.Width(when) - lipgloss.Width(typ) - 5
		title := truncate.StringWithTail(e.Title, uint(max(room, 1)), "…")
		line := fmt.Sprintf("%s %s %s %s", m.theme.Day.Time.Render(when), mark, title, typ)
		if i == m.cursor {
			line = m.theme.Day.Selected.Render(fmt.Sprintf("%s %s %s %s", when, mark, title, string(e.Type)))
		}
		lines = append(lines, line)
	}
	return frame.
		Width(inner).
		Height(max(height-frame.GetVerticalFrameSize(), 1)).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderChat(width, height int) string {
	frame := m.theme.Panel.Frame
	if m.input.Focused() {
		frame = m.theme.Panel.FocusedFrame
	}
	inner := max(width-frame.GetHorizontalFrameSize(), 10)
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Panel.Title.Render("Assistant"),
		m.chat.View(),
		m.input.View(),
	)
	return frame.
		Width(inner).
		Height(max(height-frame.GetVerticalFrameSize(), 1)).
		Render(content)
}

func (m Model) renderForm() string {
	title := "New event"
	if m.mode() == modeEdit {
		title = "Rename event"
	}
	return m.theme.Modal.Frame.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Modal.Title.Render(title),
		"",
		m.input.View(),
	))
}

func (m Model) renderReport() string {
	rep := app.Report(m.snap)
	var b strings.Builder
	for _, sec := range rep.Sections {
		fmt.Fprintf(&b, "%-12s %2d  %s\n", m.theme.Day.TypeStyle(sec.Type).Render(string(sec.Type)), len(sec.Events), timeutil.FormatMinutes(sec.Minutes))
	}
	fmt.Fprintf(&b, "\n%d events, %s scheduled\n", rep.Total, timeutil.FormatMinutes(rep.Minutes))
	fmt.Fprintf(&b, "%s on goals (%.0f%%), %d synced", timeutil.FormatMinutes(rep.GoalMinutes), rep.GoalPercent(), rep.Synced)
	return m.theme.Modal.Frame.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Modal.Title.Render("Day report"),
		"",
		m.theme.Modal.Body.Render(b.String()),
	))
}

func (m Model) overlay(box string) string {
	return lipgloss.Place(max(m.termWidth, lipgloss.Width(box)), m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderFooter() string {
	status := m.theme.Footer.Status.Render(m.status)
	if m.snap.Err != "" {
		status = m.theme.Footer.Error.Render(m.snap.Err)
	}
	var helpView string
	if m.input.Focused() {
		helpView = m.help.View(inputKeys{m.keys})
	} else {
		helpView = m.help.View(m.keys)
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.theme.Footer.Help.Render(helpView))
}
