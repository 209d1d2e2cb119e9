package components

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/eslens/internal/ui/theme"
)

// counterThreshold is the share of the limit after which the remaining
// characters are shown.
const counterThreshold = 0.8

// TextInput is a single-line field with a label and, for limited fields, a
// countdown once the text gets close to the limit.
type TextInput struct {
	input textinput.Model
	label string
	limit int
}

// NewTextInput returns a focused field. limit of zero means unlimited.
func NewTextInput(label, placeholder string, limit int) TextInput {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = max(limit, 0)
	in.Focus()
	return TextInput{input: in, label: label, limit: limit}
}

func (t TextInput) Init() tea.Cmd { return t.input.Focus() }

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	var b strings.Builder
	if t.label != "" {
		b.WriteString(theme.Body.Bold(true).Render(t.label))
		b.WriteByte(' ')
	}
	b.WriteString(t.input.View())
	if left, ok := t.remaining(); ok {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  %d left", left)))
	}
	return b.String()
}

func (t TextInput) remaining() (int, bool) {
	if t.limit <= 0 {
		return 0, false
	}
	used := len([]rune(t.input.Value()))
	if float64(used) < counterThreshold*float64(t.limit) {
		return 0, false
	}
	return t.limit - used, true
}

// Value is the text with surrounding whitespace removed.
func (t TextInput) Value() string { return strings.TrimSpace(t.input.Value()) }

func (t *TextInput) SetValue(s string) { t.input.SetValue(s) }

func (t *TextInput) Reset() { t.input.Reset() }

func (t *TextInput) Focus() tea.Cmd { return t.input.Focus() }

func (t *TextInput) Blur() { t.input.Blur() }
