package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/insightd/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Picker results besides a keyword index.
const (
	pickNone = -1
	pickQuit = -2
)

type pickerModel struct {
	keywords []model.SearchKeyword
	cursor   int
	chosen   int
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = pickQuit
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.keywords)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.keywords) > 0 {
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Insights: select a keyword")
	s += "\n"

	if len(m.keywords) == 0 {
		s += pickerItemStyle.Render("(no keywords; add one with `insightd keywords add`)") + "\n"
	}
	for i, k := range m.keywords {
		label := fmt.Sprintf("%s  %s", k.Keyword, lastSearched(k))
		if !k.IsActive {
			label += pickerInactiveStyle.Render("  [disabled]")
		}
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

func lastSearched(k model.SearchKeyword) string {
	if k.LastSearchedAt == nil {
		return "(never searched)"
	}
	return "(searched " + k.LastSearchedAt.Local().Format("2006-01-02 15:04") + ")"
}

// RunKeywordPicker shows an interactive keyword selector.
// Returns the index of the chosen keyword, or -1 if the user quit.
func RunKeywordPicker(keywords []model.SearchKeyword) (int, error) {
	m := pickerModel{
		keywords: keywords,
		chosen:   pickNone,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return pickNone, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return pickNone, nil
	}
	return final.chosen, nil
}
