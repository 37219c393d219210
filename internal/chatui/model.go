// Package chatui provides the Bubble Tea project assistant interface.
package chatui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verso-dev/folio/internal/chat"
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	userMsgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	inputStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

type sessionUpdateMsg struct{}

// Model implements the Bubble Tea chat UI around a chat.Session.
type Model struct {
	session *chat.Session
	title   string

	input textinput.Model
	vp    viewport.Model
	spin  spinner.Model

	width  int
	height int
	ready  bool
}

// NewModel constructs a chat model. title names the conversation context in
// the header, typically the project title.
func NewModel(session *chat.Session, title string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about this project…"
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return &Model{
		session: session,
		title:   title,
		input:   ti,
		spin:    sp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.waitUpdate())
}

// waitUpdate blocks on the session's update channel and converts each signal
// into a message for the event loop.
func (m *Model) waitUpdate() tea.Cmd {
	updates := m.session.Updates()
	return func() tea.Msg {
		<-updates
		return sessionUpdateMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 3
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			// Dismissing the surface always resets the conversation.
			m.session.Reset()
			return m, tea.Quit
		case "enter":
			if m.session.Send(m.input.Value()) {
				m.input.Reset()
			}
			return m, nil
		case "ctrl+x":
			m.session.Stop()
			return m, nil
		}

	case sessionUpdateMsg:
		m.refreshTranscript()
		return m, m.waitUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.session.Loading() {
			m.refreshTranscript()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.vp.SetContent(renderMessages(m.session.Messages(), m.spin.View(), m.vp.Width))
	m.vp.GotoBottom()
}

// renderMessages formats the conversation transcript. streamMark is appended
// to the message still being streamed.
func renderMessages(messages []chat.Message, streamMark string, width int) string {
	if len(messages) == 0 {
		return footerStyle.Render("Ask anything about this project to get started.")
	}
	var b strings.Builder
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userMsgStyle.Render("You"))
		default:
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteByte('\n')
		content := msg.Content
		if msg.Streaming {
			if content == "" {
				content = streamMark
			} else {
				content += " " + streamMark
			}
		}
		b.WriteString(wrap.Render(content))
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	header := headerStyle.Render("Project assistant")
	if m.title != "" {
		header += footerStyle.Render(" · " + m.title)
	}
	help := "enter send · ctrl+x stop · esc close"
	if m.session.Loading() {
		help = "streaming… · ctrl+x stop · esc close"
	}
	return header + "\n" +
		m.vp.View() + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		footerStyle.Render(help)
}
