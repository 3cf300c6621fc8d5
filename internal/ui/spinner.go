package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Spinner shows an animated spinner while an LLM call runs. It draws nothing
// when its output is not a terminal.
type Spinner struct {
	out     io.Writer
	enabled bool
	style   Styles
}

// NewSpinner draws to f when f is a terminal.
func NewSpinner(f *os.File, styles Styles) *Spinner {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return &Spinner{out: f, enabled: tty, style: styles}
}

// Start runs the spinner until the returned stop func is called. stop blocks
// until the spinner line has been cleared and is safe to call more than once.
func (s *Spinner) Start(label string) func() {
	if !s.enabled {
		return func() {}
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.style.Spinner))
	p := tea.NewProgram(
		spinnerModel{spinner: sp, label: label, muted: s.style.Muted},
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.Send(stopMsg{})
			<-done
		})
	}
}

type stopMsg struct{}

type spinnerModel struct {
	spinner  spinner.Model
	label    string
	muted    lipgloss.Style
	stopping bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.stopping = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.stopping {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.muted.Render(m.label+" is thinking..."))
}
