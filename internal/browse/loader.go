package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/insightd/internal/model"
)

var errCancelled = errors.New("cancelled")

type loadDoneMsg struct {
	insights []model.Insight
	err      error
}

type loaderModel struct {
	keyword string
	loadFn  func(ctx context.Context) ([]model.Insight, error)
	spinner spinner.Model
	result  []model.Insight
	err     error
	done    bool
}

func newLoaderModel(keyword string, loadFn func(ctx context.Context) ([]model.Insight, error)) loaderModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{keyword: keyword, loadFn: loadFn, spinner: sp}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.spinner.Tick)
}

func (m loaderModel) doLoad() tea.Cmd {
	loadFn := m.loadFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		insights, err := loadFn(ctx)
		return loadDoneMsg{insights: insights, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.result = msg.insights
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Loading insights for %q...\n", m.spinner.View(), m.keyword)
}

// RunLoader shows a spinner while loading insights. It renders inline (no alt screen).
func RunLoader(keyword string, loadFn func(ctx context.Context) ([]model.Insight, error)) ([]model.Insight, error) {
	p := tea.NewProgram(newLoaderModel(keyword, loadFn))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
