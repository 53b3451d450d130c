package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/theakshaypant/caldigest/internal/daterange"
	"github.com/theakshaypant/caldigest/internal/digest"
	"github.com/theakshaypant/caldigest/internal/util"
)

// KeyMap defines the keybindings for the TUI
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Back      key.Binding
	Yes       key.Binding
	No        key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Yes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	No: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// RunFunc executes one digest run.
type RunFunc func(ctx context.Context, opts digest.RunOptions) (*digest.Report, error)

type state int

const (
	stateMenu state = iota
	stateInput
	stateEmail
	stateRunning
	stateDone
)

type menuItem struct {
	label string
	// Descriptor handed to the resolver; empty means the current week
	descriptor string
	// Non-empty when the user has to type the descriptor
	prompt      string
	placeholder string
	exit        bool
}

var menuItems = []menuItem{
	{label: "Current week"},
	{label: "Next week", descriptor: "next week"},
	{label: "This month", descriptor: "this month"},
	{label: "Next month", descriptor: "next month"},
	{label: "Custom date range", prompt: "Date range", placeholder: "2024-08-01 to 2024-08-04"},
	{label: "Specific month", prompt: "Month", placeholder: "august 2024 or 2024-08"},
	{label: "Exit", exit: true},
}

// Messages
type runFinishedMsg struct {
	report *digest.Report
	err    error
}

// Model is the Bubble Tea model for the range picker.
type Model struct {
	keys     KeyMap
	resolver *daterange.Resolver
	run      RunFunc

	state      state
	cursor     int
	input      textinput.Model
	inputErr   string
	descriptor string
	window     daterange.Window
	sendEmail  bool

	report *digest.Report
	err    error

	view          viewport.Model
	viewportReady bool
	width         int
	height        int
	quitting      bool
}

// NewModel creates a picker that resolves descriptors with resolver and
// hands the chosen options to run.
func NewModel(resolver *daterange.Resolver, run RunFunc) Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Width = 40

	return Model{
		keys:     DefaultKeyMap,
		resolver: resolver,
		run:      run,
		input:    ti,
	}
}

// Report returns the last completed run, if any.
func (m Model) Report() *digest.Report { return m.report }

// Err returns the error of the last run, if any.
func (m Model) Err() error { return m.err }

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool { return m.quitting }

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) runDigest() tea.Cmd {
	opts := digest.RunOptions{Range: m.descriptor, SendEmail: m.sendEmail}
	run := m.run
	return func() tea.Msg {
		report, err := run(context.Background(), opts)
		return runFinishedMsg{report: report, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		if m.state == stateDone {
			m.updateResultContent()
		}
		return m, nil

	case runFinishedMsg:
		m.state = stateDone
		m.report = msg.report
		m.err = msg.err
		m.resizeViewport()
		m.updateResultContent()
		m.view.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.state {
		case stateMenu:
			return m.updateMenu(msg)
		case stateInput:
			return m.updateInput(msg)
		case stateEmail:
			return m.updateEmail(msg)
		case stateDone:
			return m.updateDone(msg)
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		item := menuItems[m.cursor]
		if item.exit {
			m.quitting = true
			return m, tea.Quit
		}
		if item.prompt != "" {
			m.state = stateInput
			m.inputErr = ""
			m.input.Reset()
			m.input.Placeholder = item.placeholder
			return m, m.input.Focus()
		}
		return m.choose(item.descriptor)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		m.state = stateMenu
		m.inputErr = ""
		return m, nil

	case key.Matches(msg, m.keys.Select):
		descriptor := strings.TrimSpace(m.input.Value())
		if descriptor == "" {
			m.inputErr = "Please enter a value"
			return m, nil
		}
		if _, err := m.resolver.Resolve(descriptor); err != nil {
			m.inputErr = describeParseError(err)
			return m, nil
		}
		m.input.Blur()
		return m.choose(descriptor)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// choose resolves descriptor and moves on to the email question.
func (m Model) choose(descriptor string) (tea.Model, tea.Cmd) {
	w, err := m.resolver.ResolveOrDefault(descriptor)
	if err != nil {
		m.inputErr = describeParseError(err)
		return m, nil
	}
	m.descriptor = descriptor
	m.window = w
	m.state = stateEmail
	return m, nil
}

func (m Model) updateEmail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = stateMenu
		return m, nil
	case key.Matches(msg, m.keys.Yes):
		m.sendEmail = true
	case key.Matches(msg, m.keys.No):
		m.sendEmail = false
	default:
		return m, nil
	}
	m.state = stateRunning
	m.report = nil
	m.err = nil
	return m, m.runDigest()
}

func (m Model) updateDone(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
		m.state = stateMenu
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func describeParseError(err error) string {
	var perr *daterange.ParseError
	if errors.As(err, &perr) {
		return "Invalid input: " + perr.Reason
	}
	return "Invalid input: " + err.Error()
}

func (m *Model) resizeViewport() {
	width := m.width - 8
	if width < 30 {
		width = 70
	}
	height := m.height - 10
	if height < 5 {
		height = 15
	}

	if !m.viewportReady {
		m.view = viewport.New(width, height)
		m.view.Style = lipgloss.NewStyle()
		m.viewportReady = true
		return
	}
	m.view.Width = width
	m.view.Height = height
}

// updateResultContent renders the finished run into the viewport.
func (m *Model) updateResultContent() {
	if !m.viewportReady {
		return
	}
	m.view.SetContent(m.resultContent(m.view.Width))
}

func (m Model) resultContent(width int) string {
	var lines []string

	if m.report != nil {
		r := m.report
		lines = append(lines,
			LabelStyle.Render("Window")+" "+r.Window.String(),
			SuccessStyle.Render("Summary: "+r.Result.Summary()),
		)
		if n := len(r.Result.Skipped); n > 0 {
			lines = append(lines, HintStyle.Render(fmt.Sprintf("%d events skipped", n)))
		}
		if r.OutputPath != "" {
			lines = append(lines, LabelStyle.Render("Saved")+" "+r.OutputPath)
		}
		if r.Emailed {
			lines = append(lines, LabelStyle.Render("Email")+" sent")
		}
	}
	if m.err != nil {
		lines = append(lines, ErrorStyle.Render(ansi.Wordwrap("Error: "+m.err.Error(), width, "")))
	}

	if m.report == nil {
		return strings.Join(lines, "\n")
	}

	snap := m.report.Result.Snapshot
	for _, date := range snap.Dates() {
		bucket := snap[date]
		lines = append(lines, "", DateStyle.Render(date))
		for _, e := range bucket.MultiDayEvents {
			lines = append(lines, ansi.Wordwrap("  🔄 "+util.TruncateText(e.Summary, 200), width, ""))
		}
		for _, e := range bucket.SingleDayEvents {
			lines = append(lines, ansi.Wordwrap("  📅 "+util.TruncateText(e.Summary, 200), width, ""))
		}
	}

	return strings.Join(lines, "\n")
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := HeaderStyle.Render("📅 caldigest")

	var content string
	switch m.state {
	case stateMenu:
		content = m.renderMenu()
	case stateInput:
		content = m.renderInput()
	case stateEmail:
		content = lipgloss.JoinVertical(lipgloss.Left,
			LabelStyle.Render("Window")+" "+m.window.String(),
			"",
			PromptStyle.Render("Send email with the summary? (y/n)"),
		)
	case stateRunning:
		content = HintStyle.Render(fmt.Sprintf("Fetching events for %s...", m.window))
	case stateDone:
		content = ResultBoxStyle.Render(m.view.View())
	}

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, content, m.renderHelp()),
	)
}

func (m Model) renderMenu() string {
	lines := make([]string, 0, len(menuItems)+2)
	lines = append(lines, PromptStyle.Render("Select a date range"), "")
	for i, item := range menuItems {
		label := fmt.Sprintf("%d. %s", i+1, item.label)
		if i == m.cursor {
			lines = append(lines, SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, NormalItemStyle.Render(label))
		}
	}
	if m.inputErr != "" {
		lines = append(lines, "", ErrorStyle.Render(m.inputErr))
	}
	return MenuPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderInput() string {
	item := menuItems[m.cursor]
	lines := []string{
		PromptStyle.Render(item.prompt),
		m.input.View(),
	}
	if m.inputErr != "" {
		lines = append(lines, ErrorStyle.Render(m.inputErr))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	var keys []string
	switch m.state {
	case stateMenu:
		keys = []string{
			HelpKeyStyle.Render("↑/↓") + " nav",
			HelpKeyStyle.Render("enter") + " select",
			HelpKeyStyle.Render("q") + " quit",
		}
	case stateInput:
		keys = []string{
			HelpKeyStyle.Render("enter") + " confirm",
			HelpKeyStyle.Render("esc") + " back",
		}
	case stateEmail:
		keys = []string{
			HelpKeyStyle.Render("y/n") + " email",
			HelpKeyStyle.Render("esc") + " back",
		}
	case stateDone:
		keys = []string{
			HelpKeyStyle.Render("↑/↓") + " scroll",
			HelpKeyStyle.Render("enter") + " menu",
			HelpKeyStyle.Render("q") + " quit",
		}
	default:
		return ""
	}
	return HelpStyle.Render(strings.Join(keys, "  •  "))
}
