package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modelgate/gateagent/internal/agent"
	"github.com/modelgate/gateagent/internal/bridge"
	"github.com/modelgate/gateagent/internal/ui"
)

type turnMsg struct {
	output string
	stats  string
	err    error
	quit   bool
	clear  bool
}

type toolActivityMsg struct {
	line string
}

type chatModel struct {
	ctx       context.Context
	sess      *session
	viewport  viewport.Model
	textInput textinput.Model
	spinner   spinner.Model
	messages  []string
	banner    []string
	activity  chan string
	isLoading bool
	ready     bool
	width     int
	height    int
}

func runChatTUI(ctx context.Context, sess *session) error {
	m := newChatModel(ctx, sess)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newChatModel(ctx context.Context, sess *session) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask anything or type /help..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.ClrBrand)

	banner := sessionBanner(sess)
	activity := make(chan string, 16)
	sess.loop.SetHooks(agent.Hooks{
		OnToolCall: func(name string, args map[string]any) {
			select {
			case activity <- ui.Dim("  [tool] ") + ui.ToolName(name) + ui.Dim(" "+compactArgs(args)):
			default:
			}
		},
	})

	return chatModel{
		ctx:       ctx,
		sess:      sess,
		textInput: ti,
		spinner:   s,
		messages:  banner,
		banner:    append([]string(nil), banner...),
		activity:  activity,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForActivity())
}

func (m chatModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		return toolActivityMsg{line: <-m.activity}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.SetValue("")
			m.messages = append(m.messages, ui.Prompt("you")+input)
			m.isLoading = true
			m.refreshViewport()
			return m, tea.Batch(m.runTurnCmd(input), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.applyWindowSize(msg.Width, msg.Height)

	case toolActivityMsg:
		m.messages = append(m.messages, msg.line)
		m.refreshViewport()
		return m, m.waitForActivity()

	case turnMsg:
		m.isLoading = false
		if msg.quit {
			return m, tea.Quit
		}
		if msg.clear {
			m.messages = append([]string(nil), m.banner...)
			m.refreshViewport()
			return m, nil
		}
		if msg.err != nil {
			errLine := ui.Errorf("%v", msg.err)
			if hint := bridge.ActionableMessageFromError(msg.err); hint != "" {
				errLine += "\n" + ui.Dim("Hint: "+hint)
			}
			m.messages = append(m.messages, errLine)
		} else if msg.output != "" {
			line := msg.output
			if msg.stats != "" {
				line += "\n" + ui.Dim(msg.stats)
			}
			m.messages = append(m.messages, line)
		}
		m.refreshViewport()
		return m, nil
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.isLoading {
		b.WriteString(m.spinner.View() + " ")
	} else {
		b.WriteString(ui.Prompt("you"))
	}
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	b.WriteString(ui.Dim("/help commands  esc quit"))
	return b.String()
}

func (m *chatModel) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.messages, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) applyWindowSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height

	vpWidth := maxInt(width-2, 1)
	m.textInput.Width = maxInt(width-16, 1)
	vpHeight := maxInt(height-2, 1)

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.viewport.SetContent(strings.Join(m.messages, "\n\n"))
		m.ready = true
		return
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

func (m *chatModel) runTurnCmd(input string) tea.Cmd {
	return func() tea.Msg {
		if output, quit := handleCommand(m.ctx, m.sess, input); quit {
			return turnMsg{quit: true}
		} else if strings.HasPrefix(input, "/") {
			if input == "/clear" {
				return turnMsg{clear: true, output: output}
			}
			return turnMsg{output: output}
		}

		result, err := m.sess.loop.RunTurn(m.ctx, input)
		if err != nil {
			return turnMsg{err: err}
		}
		return turnMsg{output: result.FinalText, stats: turnStats(result)}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
