package browse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/insightd/internal/model"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleInsights() []model.Insight {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return []model.Insight{
		{ID: 1, SearchWord: "korea", Category: model.CategoryVisa, Content: "E-7 needs a sponsor", SourceURL: "https://a.example.com", UpdatedAt: at},
		{ID: 2, SearchWord: "korea", Category: model.CategoryCulture, Content: "Hoesik is common", SourceURL: "https://b.example.com", UpdatedAt: at},
		{ID: 3, SearchWord: "korea", Category: model.CategoryVisa, Content: "D-10 for job seekers", SourceURL: "https://c.example.com", UpdatedAt: at},
	}
}

func sized(m browseModel) browseModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(browseModel)
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func TestPicker_SelectsKeyword(t *testing.T) {
	m := pickerModel{
		keywords: []model.SearchKeyword{{Keyword: "visa"}, {Keyword: "culture"}},
		chosen:   pickNone,
	}
	final := press(m, "j", "j", "enter").(pickerModel)
	if final.chosen != 1 {
		t.Errorf("chosen = %d, want 1 (cursor clamps at the last item)", final.chosen)
	}
}

func TestPicker_Quit(t *testing.T) {
	m := pickerModel{keywords: []model.SearchKeyword{{Keyword: "visa"}}, chosen: pickNone}
	final := press(m, "q").(pickerModel)
	if final.chosen != pickQuit {
		t.Errorf("chosen = %d, want quit", final.chosen)
	}
}

func TestPicker_EnterWithoutKeywords(t *testing.T) {
	m := pickerModel{chosen: pickNone}
	final := press(m, "enter").(pickerModel)
	if final.chosen != pickNone {
		t.Errorf("chosen = %d, want none", final.chosen)
	}
	if !strings.Contains(final.View(), "no keywords") {
		t.Error("empty picker should hint at adding keywords")
	}
}

func TestLoader_DeliversResult(t *testing.T) {
	want := sampleInsights()
	m := newLoaderModel("korea", func(context.Context) ([]model.Insight, error) { return want, nil })

	msg := m.doLoad()()
	next, _ := m.Update(msg)
	final := next.(loaderModel)
	if !final.done || len(final.result) != 3 || final.err != nil {
		t.Errorf("loader = %+v", final)
	}
	if final.View() != "" {
		t.Error("finished loader should render nothing")
	}
}

func TestLoader_PropagatesError(t *testing.T) {
	m := newLoaderModel("korea", func(context.Context) ([]model.Insight, error) { return nil, errors.New("db down") })
	next, _ := m.Update(m.doLoad()())
	if err := next.(loaderModel).err; err == nil || err.Error() != "db down" {
		t.Errorf("err = %v", err)
	}
}

func TestBrowse_TabFiltersByCategory(t *testing.T) {
	m := sized(newBrowseModel("korea", sampleInsights()))
	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}

	m = press(m, "tab").(browseModel)
	if categoryTabs[m.tab] != model.CategoryVisa || len(m.visible) != 2 {
		t.Errorf("visa tab visible = %d", len(m.visible))
	}

	m = press(m, "tab", "tab", "tab").(browseModel)
	if m.tab != 0 || len(m.visible) != 3 {
		t.Errorf("tab should wrap to all, got tab=%d visible=%d", m.tab, len(m.visible))
	}
	if len(m.all) != 3 {
		t.Error("filtering must not change the full list")
	}
}

func TestBrowse_DetailShowsSelectedInsight(t *testing.T) {
	m := sized(newBrowseModel("korea", sampleInsights()))
	m = press(m, "down", "enter").(browseModel)

	if m.view != viewDetail {
		t.Fatal("expected detail view")
	}
	detail := m.renderDetail()
	if !strings.Contains(detail, "https://b.example.com") || !strings.Contains(detail, "Hoesik is common") {
		t.Errorf("detail = %q", detail)
	}

	m = press(m, "esc").(browseModel)
	if m.view != viewList || m.wantQuit {
		t.Error("esc in detail should return to the list")
	}
}

func TestBrowse_EmptyList(t *testing.T) {
	m := sized(newBrowseModel("korea", nil))
	m = press(m, "enter", "down").(browseModel)
	if m.view != viewList {
		t.Error("enter on an empty list should stay in the list")
	}
	if !strings.Contains(m.View(), "(no insights)") {
		t.Error("expected empty-list placeholder")
	}
}

func TestBrowse_EscReturnsToPicker(t *testing.T) {
	m := sized(newBrowseModel("korea", sampleInsights()))
	m = press(m, "esc").(browseModel)
	if m.wantQuit {
		t.Error("esc should go back, not quit")
	}
	m = press(sized(newBrowseModel("korea", nil)), "q").(browseModel)
	if !m.wantQuit {
		t.Error("q should quit")
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three\n\nfour", 7)
	want := "one two\nthree\n\nfour"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}

func TestCategoryCounts(t *testing.T) {
	if got := categoryCounts(sampleInsights()); got != "visa 2 · culture 1 · industry 0" {
		t.Errorf("categoryCounts = %q", got)
	}
}
