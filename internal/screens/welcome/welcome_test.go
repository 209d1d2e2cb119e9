package welcome

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eslens/internal/router"
	"github.com/abhisek/eslens/internal/screen"
)

// stubScreen is a minimal screen implementation for testing.
type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "home" }
func (s *stubScreen) Title() string                          { return "Home" }

func newTestWelcome() (*WelcomeScreen, *int) {
	callCount := 0
	factory := func() screen.Screen {
		callCount++
		return &stubScreen{}
	}
	return New(factory), &callCount
}

func sendFrames(w *WelcomeScreen, n int) {
	for i := 0; i < n; i++ {
		w.Update(frameMsg{})
	}
}

func TestPhases(t *testing.T) {
	w, callCount := newTestWelcome()

	if w.phase() != phaseLens {
		t.Errorf("phase = %d, want lens", w.phase())
	}
	if strings.Contains(w.View(80, 24), "in your language") {
		t.Error("tagline should not be visible at start")
	}

	sendFrames(w, phaseStart[phaseFocus])
	if w.phase() != phaseFocus {
		t.Errorf("phase = %d, want focus", w.phase())
	}

	sendFrames(w, phaseStart[phaseBanner]-phaseStart[phaseFocus])
	if w.phase() != phaseBanner {
		t.Errorf("phase = %d, want banner", w.phase())
	}
	view := w.View(80, 24)
	if !strings.Contains(view, "Homework help in your language") {
		t.Error("tagline should be visible once the banner shows")
	}
	if !strings.Contains(view, "press any key") {
		t.Error("continue hint should be visible")
	}

	sendFrames(w, 50)
	if w.phase() != phaseBanner {
		t.Error("banner should stay up")
	}
	if *callCount != 0 {
		t.Errorf("factory should not be called without keypress, got %d", *callCount)
	}
}

func TestKeypressReplacesWithHome(t *testing.T) {
	w, callCount := newTestWelcome()
	sendFrames(w, 2)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("keypress should trigger transition")
	}
	replace, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if replace.Screen == nil {
		t.Error("replace screen should not be nil")
	}
	if *callCount != 1 {
		t.Errorf("factory should be called once, got %d", *callCount)
	}

	if _, cmd := w.Update(tea.KeyPressMsg{Code: 'b'}); cmd != nil {
		t.Error("second keypress should not produce a command")
	}
	if _, cmd := w.Update(frameMsg{}); cmd != nil {
		t.Error("frames should stop after the transition")
	}
	if *callCount != 1 {
		t.Errorf("factory should be called exactly once, got %d", *callCount)
	}
}

func TestGreetingRotates(t *testing.T) {
	w, _ := newTestWelcome()
	first := w.greeting()
	sendFrames(w, framesPerGreeting)
	if w.greeting() == first {
		t.Error("greeting should change after a second")
	}
}

func TestCompactBanner(t *testing.T) {
	if !strings.Contains(RenderBanner(40), bannerCompact) {
		t.Error("narrow terminals should get the compact banner")
	}
}
