// Package tui is the full-screen chat program: a navigation bar, the chat
// view with its input line, an optional sidebar and the about view.
package tui

import (
	"context"
	"errors"
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
	"github.com/longkey1/suvidha/internal/chat"
	"github.com/longkey1/suvidha/internal/docs"
	"github.com/longkey1/suvidha/internal/export"
	"go.uber.org/zap"
)

type view int

const (
	viewChat view = iota
	viewAbout
)

// navigation bar, status bar, help line and the bordered input
const chromeHeight = 7

// Options configures a Model.
type Options struct {
	Session   *chat.Session
	Layout    *Layout
	ExportDir string
	WebURL    string
	Logger    *zap.Logger

	// Style is the glamour standard style, "dark" or "light"
	Style string
	// Now returns the time used to name export files
	Now func() time.Time
}

// StatusMsg replaces the text of the status bar.
type StatusMsg string

type replyMsg struct {
	turn  *chat.Turn
	reply *chat.Reply
	err   error
}

type exportedMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the chat program.
type Model struct {
	ctx       context.Context
	session   *chat.Session
	layout    *Layout
	exportDir string
	webURL    string
	logger    *zap.Logger
	now       func() time.Time

	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	about    viewport.Model
	spinner  spinner.Model
	render   *renderer

	view         view
	confirming   bool
	status       string
	width        int
	height       int
	lastRevision uint64
}

// New builds the program model. ctx is used for backend requests and is
// expected to live as long as the program.
func New(ctx context.Context, opts Options) Model {
	if opts.Layout == nil {
		opts.Layout = NewLayout(true)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Style == "" {
		opts.Style = "dark"
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about GFR or PM rules..."
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		layout:    opts.Layout,
		exportDir: opts.ExportDir,
		webURL:    opts.WebURL,
		logger:    opts.Logger,
		now:       opts.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		input:     ti,
		viewport:  viewport.New(80, 20),
		about:     viewport.New(80, 20),
		spinner:   sp,
		render:    newRenderer(opts.Style),
		width:     80,
		height:    24,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		if m.confirming && !key.Matches(msg, m.keys.Quit) {
			m.updateConfirm(msg)
			return m, nil
		}
		cmd, handled := m.updateKeys(msg)
		if handled {
			m.refresh()
			return m, cmd
		}
		if m.view == viewAbout {
			var vpCmd tea.Cmd
			m.about, vpCmd = m.about.Update(msg)
			return m, vpCmd
		}
		if !m.session.Awaiting() {
			var tiCmd tea.Cmd
			m.input, tiCmd = m.input.Update(msg)
			m.session.SetInput(m.input.Value())
			cmds = append(cmds, tiCmd)
		}

	case replyMsg:
		m.session.Complete(msg.turn, msg.reply, msg.err)
		if msg.err != nil {
			m.status = "Request failed"
		} else {
			m.status = ""
		}
		cmds = append(cmds, m.input.Focus())

	case exportedMsg:
		switch {
		case errors.Is(msg.err, chat.ErrEmptyHistory):
			m.status = "No messages to export"
		case msg.err != nil:
			m.logger.Error("Export failed", zap.Error(msg.err))
			m.status = "Export failed: " + msg.err.Error()
		default:
			m.logger.Info("Chat history exported", zap.String("path", msg.path))
			m.status = "Exported to " + msg.path
		}

	case StatusMsg:
		m.status = string(msg)

	case spinner.TickMsg:
		if m.session.Awaiting() {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			cmds = append(cmds, spCmd)
		}

	default:
		var tiCmd tea.Cmd
		m.input, tiCmd = m.input.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// updateKeys handles the global bindings. It reports false when the key
// belongs to the focused view.
func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.SwitchView):
		if m.view == viewChat {
			m.view = viewAbout
			m.input.Blur()
			return nil, true
		}
		m.view = viewChat
		return m.input.Focus(), true

	case key.Matches(msg, m.keys.Sidebar):
		m.layout.ToggleSidebar()
		m.resize()
		return nil, true

	case key.Matches(msg, m.keys.Export):
		return m.exportCmd(), true

	case key.Matches(msg, m.keys.Clear):
		if m.session.Len() == 0 {
			m.status = "No messages to clear"
			return nil, true
		}
		m.confirming = true
		return nil, true

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		if m.view == viewAbout {
			m.about, cmd = m.about.Update(msg)
		} else {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return cmd, true

	case key.Matches(msg, m.keys.Submit) && m.view == viewChat:
		return m.submit(), true
	}
	return nil, false
}

func (m *Model) submit() tea.Cmd {
	turn, err := m.session.Begin(m.session.Input())
	if err != nil {
		// Blank input and a second submit while awaiting are ignored
		return nil
	}
	m.input.Reset()
	m.input.Blur()
	m.status = ""
	return tea.Batch(m.sendCmd(turn), m.spinner.Tick)
}

func (m Model) sendCmd(turn *chat.Turn) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		reply, err := session.Send(ctx, turn)
		return replyMsg{turn: turn, reply: reply, err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	dir, session, now := m.exportDir, m.session, m.now()
	return func() tea.Msg {
		path, err := export.Write(dir, session, now)
		return exportedMsg{path: path, err: err}
	}
}

func (m *Model) updateConfirm(msg tea.KeyMsg) {
	var answer bool
	switch {
	case key.Matches(msg, m.keys.Yes):
		answer = true
	case key.Matches(msg, m.keys.No):
	default:
		return
	}
	m.confirming = false

	cleared, err := m.session.Clear(chat.ConfirmFunc(func(string) bool { return answer }))
	switch {
	case err != nil:
		m.status = "No messages to clear"
	case cleared:
		m.status = "Chat history cleared"
	default:
		m.status = ""
	}
	m.refresh()
}

// refresh re-renders the history and scrolls to the bottom whenever the
// history changed since the last render.
func (m *Model) refresh() {
	rev := m.session.Revision()
	if rev == m.lastRevision {
		return
	}
	m.lastRevision = rev
	m.viewport.SetContent(m.render.messages(m.session.Messages()))
	m.viewport.GotoBottom()
}

func (m *Model) resize() {
	mainWidth := m.width
	if m.layout.SidebarOpen() {
		mainWidth -= sidebarWidth + 1
	}
	if mainWidth < 20 {
		mainWidth = 20
	}
	bodyHeight := m.height - chromeHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	m.viewport.Width = mainWidth
	m.viewport.Height = bodyHeight
	m.about.Width = mainWidth
	m.about.Height = bodyHeight + 4
	m.input.Width = mainWidth - 6
	m.help.Width = m.width

	m.render.setWidth(mainWidth - 4)
	m.about.SetContent(m.render.markdown(docs.About))
	m.viewport.SetContent(m.render.messages(m.session.Messages()))
	m.lastRevision = m.session.Revision()
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	bodyHeight := m.height - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var main string
	switch {
	case m.confirming:
		main = m.dialogView(bodyHeight)
	case m.view == viewAbout:
		main = m.about.View()
	default:
		main = m.chatView()
	}

	body := main
	if m.layout.SidebarOpen() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(bodyHeight), " ", main)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.navView(),
		body,
		m.statusView(),
		m.help.View(m.keys),
	)
}

func (m Model) navView() string {
	tabs := []string{"Chat", "About"}
	var rendered []string
	for i, tab := range tabs {
		if view(i) == m.view {
			rendered = append(rendered, activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, tabStyle.Render(tab))
		}
	}

	sidebar := "sidebar: closed"
	if m.layout.SidebarOpen() {
		sidebar = "sidebar: open"
	}

	left := titleStyle.Render("GFR & PM Assistant") + strings.Join(rendered, "")
	right := dimStyle.Render(sidebar)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return navStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) chatView() string {
	thinking := ""
	box := inputStyle
	if m.session.Awaiting() {
		thinking = m.spinner.View() + " Thinking..."
		box = disabledInputStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		thinking,
		box.Width(m.viewport.Width-2).Render(m.input.View()),
	)
}

func (m Model) dialogView(height int) string {
	dialog := dialogStyle.Render(fmt.Sprintf("%s\n\n%s", chat.ClearPrompt, dimStyle.Render("[y/N]")))
	return lipgloss.Place(m.viewport.Width, height, lipgloss.Center, lipgloss.Center, dialog)
}

func (m Model) statusView() string {
	left := m.status
	if left == "" {
		left = fmt.Sprintf("%d messages", m.session.Len())
	}
	return statusBarStyle.Width(m.width).Render(left)
}
