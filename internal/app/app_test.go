package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
	"github.com/abhisek/eslens/internal/screens/home"
	"github.com/abhisek/eslens/internal/screens/welcome"
	"github.com/abhisek/eslens/internal/ui/layout"
)

type stubScreen struct{ hints []layout.KeyHint }

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "stub" }
func (s *stubScreen) Title() string                          { return "Stub" }

type hintedScreen struct{ stubScreen }

func (s *hintedScreen) KeyHints() []layout.KeyHint { return s.hints }

func TestStartsAtWelcome(t *testing.T) {
	m := newAppModel(Options{})
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Errorf("expected welcome screen, got %T", m.router.Active())
	}

	m = newAppModel(Options{SkipWelcome: true})
	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Errorf("expected home screen, got %T", m.router.Active())
	}
}

func TestEscPopsOnlyAboveRoot(t *testing.T) {
	m := newAppModel(Options{SkipWelcome: true})

	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("esc at the root should do nothing")
	}

	m.router.Update(router.PushScreenMsg{Screen: &stubScreen{}})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("esc above the root should pop")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := newAppModel(Options{SkipWelcome: true})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestWindowSizeRecorded(t *testing.T) {
	m := newAppModel(Options{SkipWelcome: true})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	am := updated.(AppModel)
	if am.width != 100 || am.height != 30 {
		t.Errorf("size = %dx%d", am.width, am.height)
	}
}

func TestFooterHints(t *testing.T) {
	m := newAppModel(Options{SkipWelcome: true})

	hints := m.footerHints(m.router.Active())
	if hints[0].Key != "↑↓" || hints[len(hints)-1].Key != "Ctrl+C" {
		t.Errorf("root hints = %+v", hints)
	}

	plain := &stubScreen{}
	m.router.Update(router.PushScreenMsg{Screen: plain})
	hints = m.footerHints(plain)
	if hints[0].Key != "Esc" {
		t.Errorf("pushed hints = %+v", hints)
	}

	hinted := &hintedScreen{stubScreen{hints: []layout.KeyHint{{Key: "Enter", Description: "Send"}}}}
	hints = m.footerHints(hinted)
	if len(hints) != 2 || hints[0].Key != "Enter" || hints[1].Key != "Ctrl+C" {
		t.Errorf("provided hints = %+v", hints)
	}
}
