package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/missionhq/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with campaign styling and a
// submitted/valid marker.
type TextInput struct {
	Model     textinput.Model
	theme     theme.Theme
	submitted bool
	valid     bool
}

// NewTextInput creates a focused text input. A charLimit of 0 means no limit.
func NewTextInput(th theme.Theme, placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = max(charLimit, 0)
	ti.Focus()
	return TextInput{Model: ti, theme: th}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.submitted {
		if t.valid {
			view += " " + t.theme.Success().Render("✓")
		} else {
			view += " " + t.theme.Error().Render("✗")
		}
	}
	return view
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Submit marks the input as submitted with a validation result.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}
