package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestMenuSkipsDisabledItems(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "disabled", Disabled: true},
		{Label: "first"},
		{Label: "also disabled", Disabled: true},
		{Label: "second"},
	})
	if m.Selected != 1 {
		t.Fatalf("expected first enabled item selected, got %d", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("expected down to skip disabled item, got %d", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 1 {
		t.Errorf("expected up to skip disabled item, got %d", m.Selected)
	}
}

func TestMenuEnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "go", Action: func() tea.Cmd {
		ran = true
		return nil
	}}})

	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !ran {
		t.Error("expected Enter to run the selected action")
	}
}

func TestMenuViewShowsDetail(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Past sessions", Detail: "3 saved"}})
	view := m.View()
	if !strings.Contains(view, "Past sessions") || !strings.Contains(view, "3 saved") {
		t.Errorf("expected label and detail in view, got %q", view)
	}
}

func TestMenuWrapsAround(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "a"}, {Label: "b", Disabled: true}, {Label: "c"}})

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 2 {
		t.Errorf("up from the top should wrap to the last item, got %d", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 0 {
		t.Errorf("down from the bottom should wrap to the first item, got %d", m.Selected)
	}
}

func TestMenuShortcutKey(t *testing.T) {
	var ran string
	action := func(name string) func() tea.Cmd {
		return func() tea.Cmd { ran = name; return nil }
	}
	m := NewMenu([]MenuItem{
		{Label: "New homework", Key: "n", Action: action("new")},
		{Label: "Past sessions", Key: "p", Action: action("past")},
		{Label: "Locked", Key: "l", Action: action("locked"), Disabled: true},
	})

	m, _ = m.Update(tea.KeyPressMsg{Code: 'p', Text: "p"})
	if ran != "past" || m.Selected != 1 {
		t.Errorf("shortcut ran %q, selected %d", ran, m.Selected)
	}
	m.Update(tea.KeyPressMsg{Code: 'l', Text: "l"})
	if ran != "past" {
		t.Error("disabled item should ignore its shortcut")
	}
	if !strings.Contains(m.View(), "[n] New homework") {
		t.Error("view should show shortcut keys")
	}
}

func TestMenuSetDetail(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Past sessions"}})
	m.SetDetail("Past sessions", "3 saved")
	if !strings.Contains(m.View(), "3 saved") {
		t.Error("detail not rendered")
	}
}
