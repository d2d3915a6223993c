// Package tui is a terminal browser for the TOC of one page. It drives a
// session the way a reader would: clicking entries and scrolling the
// highlight through the headings.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ziadkadry99/tocsync/internal/toc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0969DA"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)
)

// Controller is the part of a session the browser drives.
type Controller interface {
	Click(ctx context.Context, href string) error
	Highlight(ctx context.Context, href string) error
	State(ctx context.Context) (toc.State, error)
}

type stateMsg struct {
	state toc.State
	err   error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx   context.Context
	ctl   Controller
	state toc.State
	err   error

	// cursor indexes visible rows.
	cursor   int
	height   int
	quitting bool
}

// New returns a model over ctl. ctx bounds every session call.
func New(ctx context.Context, ctl Controller) Model {
	return Model{ctx: ctx, ctl: ctl}
}

// Run shows the browser until the user quits or ctx is done.
func Run(ctx context.Context, ctl Controller) error {
	p := tea.NewProgram(New(ctx, ctl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// State returns the last state received from the session.
func (m Model) State() toc.State { return m.state }

// Err returns the error of the last action, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return m.do(nil)
}

// do runs action on the session, then reads the resulting state.
func (m Model) do(action func(context.Context) error) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		var actionErr error
		if action != nil {
			actionErr = action(ctx)
		}
		st, err := ctl.State(ctx)
		if err == nil {
			err = actionErr
		}
		return stateMsg{state: st, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		visible := m.visible()
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < len(visible)-1 {
				m.cursor++
			}
			return m, nil

		case "enter", " ":
			if len(visible) == 0 {
				return m, nil
			}
			href := m.state.Items[visible[m.cursor]].Target
			return m, m.do(func(ctx context.Context) error { return m.ctl.Click(ctx, href) })

		case "n", "p":
			next := m.neighbour(msg.String() == "n")
			if next < 0 {
				return m, nil
			}
			href := m.state.Items[next].Target
			return m, m.do(func(ctx context.Context) error { return m.ctl.Highlight(ctx, href) })

		case "c":
			return m, m.do(func(ctx context.Context) error { return m.ctl.Highlight(ctx, "") })

		case "q", "Q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case stateMsg:
		var target string
		if visible := m.visible(); m.cursor < len(visible) {
			target = m.state.Items[visible[m.cursor]].Target
		}
		m.err = msg.err
		if msg.err == nil || msg.state.Page != "" {
			m.state = msg.state
		}
		m.cursor = m.rowOf(target)
		return m, nil
	}

	return m, nil
}

// visible lists the indexes of items whose enclosing items are all expanded.
func (m Model) visible() []int {
	var rows []int
	for i := range m.state.Items {
		if m.state.Visible(i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// rowOf finds the visible row showing target, clamping to the list.
func (m Model) rowOf(target string) int {
	visible := m.visible()
	for row, i := range visible {
		if m.state.Items[i].Target == target {
			return row
		}
	}
	return min(m.cursor, max(len(visible)-1, 0))
}

// neighbour picks the heading after (or before) the active one, as scrolling
// down (or up) would.
func (m Model) neighbour(forward bool) int {
	n := len(m.state.Items)
	if n == 0 {
		return -1
	}
	active := m.state.Active()
	switch {
	case active < 0 && forward:
		return 0
	case active < 0:
		return -1
	case forward:
		return min(active+1, n-1)
	default:
		return max(active-1, 0)
	}
}

func (m Model) hasChildren(i int) bool {
	for _, it := range m.state.Items[i+1:] {
		if it.Parent == i {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	page := m.state.Page
	if page == "" {
		page = "(no page)"
	}
	b.WriteString(titleStyle.Render("Table of contents: "+page) + "\n")
	if m.state.Fragment != "" {
		b.WriteString(statusStyle.Render("fragment "+m.state.Fragment) + "\n")
	}
	b.WriteString("\n")

	switch {
	case !m.state.Bound && m.state.Page != "":
		b.WriteString(statusStyle.Render("This page has no table of contents.") + "\n")
	case len(m.state.Items) == 0:
		b.WriteString(statusStyle.Render("Loading...") + "\n")
	}

	for row, i := range m.visible() {
		it := m.state.Items[i]
		marker := "  "
		if m.hasChildren(i) {
			marker = "▸ "
			if it.Expanded {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", it.Depth-1) + marker + it.Title
		switch {
		case row == m.cursor:
			line = cursorStyle.Render("> " + line)
		case it.Active:
			line = activeStyle.Render("  " + line)
		default:
			line = itemStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n")
	}
	b.WriteString(controlsStyle.Render("↑/↓ move • enter click • n/p next/prev heading • c clear highlight • q quit"))
	return b.String()
}
