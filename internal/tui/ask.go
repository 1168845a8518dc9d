// Package tui renders a streaming answer in the terminal. It is the only
// code that owns UI state; the backend goroutine never touches it directly,
// chunks arrive solely through the dispatch call's channel.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/clipask/clipask/internal/llm"
)

var (
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// askModel is the bubbletea model for a streaming answer.
type askModel struct {
	spinner    spinner.Model
	chunks     <-chan llm.ResponseChunk
	content    string
	done       bool
	finalView  string
	hasContent bool
}

// chunkMsg carries one response chunk. Content is cumulative, so each chunk
// replaces the view rather than appending to it.
type chunkMsg llm.ResponseChunk

// doneMsg signals the chunk channel is drained
type doneMsg struct{}

func newAskModel(chunks <-chan llm.ResponseChunk) askModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return askModel{
		spinner: s,
		chunks:  chunks,
	}
}

func (m askModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChunk(m.chunks))
}

// waitForChunk reads from the channel and relays chunks as messages
func waitForChunk(chunks <-chan llm.ResponseChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-chunks
		if !ok {
			return doneMsg{}
		}
		return chunkMsg(chunk)
	}
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chunkMsg:
		m.content = msg.Content
		m.hasContent = m.content != ""
		return m, waitForChunk(m.chunks)

	case doneMsg:
		m.done = true
		if strings.HasPrefix(m.content, "Error:") {
			m.finalView = errorStyle.Render(m.content) + "\n"
		} else if m.content != "" {
			rendered, err := renderMarkdown(m.content)
			if err != nil {
				m.finalView = m.content + "\n"
			} else {
				m.finalView = rendered
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m askModel) View() string {
	if m.done {
		return m.finalView
	}

	if !m.hasContent {
		return m.spinner.View() + waitingStyle.Render(" Thinking...")
	}

	rendered, err := renderMarkdown(m.content)
	if err != nil {
		return m.content
	}
	return rendered
}

// Stream drains chunks into an interactive view: spinner while waiting,
// live content while streaming, glamour-rendered markdown once done. It
// falls back to plain streaming when no TTY is available.
func Stream(chunks <-chan llm.ResponseChunk) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return StreamPlain(chunks)
	}
	defer tty.Close()

	model := newAskModel(chunks)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(os.Stdout))

	_, err = p.Run()
	return err
}

// StreamPlain prints only the terminal chunk's content. Intermediate chunks
// are cumulative snapshots, so printing them would duplicate text on a dumb
// output.
func StreamPlain(chunks <-chan llm.ResponseChunk) error {
	var last string
	for chunk := range chunks {
		last = chunk.Content
	}
	fmt.Println(last)
	return nil
}

// renderMarkdown renders markdown content using glamour with no padding
func renderMarkdown(content string) (string, error) {
	style := styles.DraculaStyleConfig
	style.Document.Margin = uintPtr(0)
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.CodeBlock.Margin = uintPtr(0)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(rendered) + "\n", nil
}

func uintPtr(v uint) *uint {
	return &v
}
