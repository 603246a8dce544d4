package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/insightd/internal/model"
)

// Lines per insight in the list view (source + subtitle + blank separator).
const insightItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// categoryTabs is the filter cycle; "" shows every category.
var categoryTabs = []model.Category{"", model.CategoryVisa, model.CategoryCulture, model.CategoryIndustry}

type browseModel struct {
	keyword  string
	all      []model.Insight
	visible  []model.Insight
	tab      int
	cursor   int
	width    int
	height   int
	ready    bool
	listView viewport.Model
	preview  viewport.Model

	view       viewState
	detailView viewport.Model

	wantQuit bool
}

func newBrowseModel(keyword string, insights []model.Insight) browseModel {
	m := browseModel{keyword: keyword, all: insights}
	m.applyFilter()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailView.Width = m.width - 4
			m.detailView.Height = m.height - 4
			m.detailView.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}
	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % len(categoryTabs)
		m.applyFilter()
		m.recalcContent()
		m.listView.SetYOffset(0)
		return m, nil
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.visible)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.visible)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	case "o":
		if in, ok := m.selected(); ok {
			openURL(in.SourceURL)
		}
		return m, nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the preview pane.
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if in, ok := m.selected(); ok {
			openURL(in.SourceURL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return m, cmd
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if _, ok := m.selected(); !ok {
		return m, nil
	}
	m.view = viewDetail
	m.detailView = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailView.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) applyFilter() {
	cat := categoryTabs[m.tab]
	m.visible = nil
	for _, in := range m.all {
		if cat == "" || in.Category == cat {
			m.visible = append(m.visible, in)
		}
	}
	m.cursor = 0
}

func (m browseModel) selected() (model.Insight, bool) {
	if len(m.visible) == 0 {
		return model.Insight{}, false
	}
	return m.visible[m.cursor], true
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.listView
	cursorTop := m.cursor * insightItemHeight
	cursorBottom := cursorTop + insightItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listView = viewport.New(paneWidth, paneHeight)
		m.preview = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listView.Width = paneWidth
		m.listView.Height = paneHeight
		m.preview.Width = paneWidth
		m.preview.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listView.SetContent(renderInsights(m.visible, m.cursor))
	preview := "  (nothing selected)"
	if in, ok := m.selected(); ok {
		preview = bodyStyle.Render(wordWrap(in.Content, max(m.preview.Width-2, 10)))
	}
	m.preview.SetContent(preview)
	m.preview.SetYOffset(0)
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.listView.Width

	leftHeader := fmt.Sprintf(" %s: %s (%d)", m.keyword, tabLabel(categoryTabs[m.tab]), len(m.visible))
	rightHeader := " Preview"

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(activeHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(inactiveHeaderStyle.Render(rightHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		activeBorderStyle.Width(paneWidth).Render(m.listView.View()),
		" ",
		inactiveBorderStyle.Width(paneWidth).Render(m.preview.View()),
	)

	statusText := fmt.Sprintf(" %d insights | %s    Tab category  ↑/↓ cursor  Enter detail  o open  Esc back  q quit",
		len(m.all), categoryCounts(m.all))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Insight Details")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailView.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open source  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	in, ok := m.selected()
	if !ok {
		return ""
	}
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Keyword", in.SearchWord)
	addField("Category", string(in.Category))
	addField("Source", in.SourceURL)
	addField("Created", in.CreatedAt.Local().Format("2006-01-02 15:04 MST"))
	addField("Updated", in.UpdatedAt.Local().Format("2006-01-02 15:04 MST"))

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	b.WriteString(dividerStyle.Render("── Content "+strings.Repeat("─", max(wrapWidth-11, 3))) + "\n\n")
	b.WriteString(bodyStyle.Render(wordWrap(in.Content, wrapWidth)) + "\n")
	return b.String()
}

func renderInsights(insights []model.Insight, cursor int) string {
	if len(insights) == 0 {
		return "  (no insights)"
	}

	var b strings.Builder
	for i, in := range insights {
		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(in.SourceURL))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · updated %s", in.Category, in.UpdatedAt.Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(insights)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func tabLabel(c model.Category) string {
	if c == "" {
		return "all"
	}
	return string(c)
}

func categoryCounts(insights []model.Insight) string {
	counts := make(map[model.Category]int)
	for _, in := range insights {
		counts[in.Category]++
	}
	parts := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
	}
	return strings.Join(parts, " · ")
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowseTUI launches the split-pane insight browser for one keyword.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunBrowseTUI(keyword string, insights []model.Insight) (bool, error) {
	p := tea.NewProgram(newBrowseModel(keyword, insights), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(browseModel)
	return final.wantQuit, nil
}
