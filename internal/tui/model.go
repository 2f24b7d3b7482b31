// Package tui is the interactive terminal chat for kural.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/orchestrator"
)

// ChatPort is the TUI-facing subset of the pipeline.
type ChatPort interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (string, error)
}

type turn struct {
	question string
	answer   string
	err      error
}

// replyMsg carries the outcome of an asynchronous chat turn.
type replyMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	service  ChatPort
	poem     string
	analysis *literary.Analysis
	timeout  time.Duration

	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. poem and analysis are sent with the first turn
// only, so the bundle is stored once per session.
func New(service ChatPort, poem string, analysis *literary.Analysis) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the poem and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	status := "Ready. Ctrl+C to quit."
	if strings.TrimSpace(poem) != "" {
		status = "Poem loaded. Ctrl+C to quit."
	}

	return Model{
		service:  service,
		poem:     poem,
		analysis: analysis,
		timeout:  2 * time.Minute,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   status,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, resize and reply events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + th // header, status, frames
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case replyMsg:
		m.waiting = false
		last := &m.turns[len(m.turns)-1]
		last.answer, last.err = msg.answer, msg.err
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("%d turns", len(m.turns))
			// poem context is stored after the first successful turn
			m.poem, m.analysis = "", nil
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.turns = append(m.turns, turn{question: q})
			m.waiting = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	req := orchestrator.ChatRequest{Message: question, Poem: m.poem, Analysis: m.analysis}
	service, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := service.Chat(ctx, req)
		return replyMsg{answer: answer, err: err}
	}
}

// View renders the transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("kural · Tamil poem chat")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return mutedStyle.Render("No messages yet.")
	}

	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: "))
		b.WriteString(t.question)
		b.WriteString("\n")
		switch {
		case t.err != nil:
			b.WriteString(errorStyle.Render("Error: " + t.err.Error()))
		case t.answer == "":
			b.WriteString(mutedStyle.Render("..."))
		default:
			b.WriteString(answerStyle.Render("kural: "))
			b.WriteString(t.answer)
		}
	}
	return b.String()
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	answerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
