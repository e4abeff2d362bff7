// Package form binds labelled text inputs to a values map keyed by a name
// derived from the label.
package form

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Width(18).Foreground(lipgloss.Color("#f56a96"))
	childStyle = lipgloss.NewStyle().PaddingLeft(18).Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"})
)

// FieldKey derives the field name from a label: whitespace-separated tokens
// are lower-cased and every token after the first gets an upper-case first
// letter. "Confirm Password" becomes "confirmPassword".
func FieldKey(label string) string {
	var b strings.Builder
	for i, token := range strings.Fields(label) {
		token = strings.ToLower(token)
		if i > 0 {
			r, size := utf8.DecodeRuneInString(token)
			b.WriteRune(unicode.ToUpper(r))
			token = token[size:]
		}
		b.WriteString(token)
	}
	return b.String()
}

// ChangeFunc is called with the field name and its new value on every edit
type ChangeFunc func(name, value string)

// Field is a labelled input bound to values[Name]
type Field struct {
	Label       string
	Name        string
	Value       string
	Prefix      string
	Placeholder string
	Secret      bool
	Children    []string
	OnChange    ChangeFunc
}

type Option func(*Field)

// WithPrefix sets the decorative affix shown before the input
func WithPrefix(prefix string) Option {
	return func(f *Field) { f.Prefix = prefix }
}

func WithPlaceholder(placeholder string) Option {
	return func(f *Field) { f.Placeholder = placeholder }
}

// WithSecret masks the input, for passwords
func WithSecret() Option {
	return func(f *Field) { f.Secret = true }
}

// WithChildren adds content rendered under the input, unchanged
func WithChildren(children ...string) Option {
	return func(f *Field) { f.Children = append(f.Children, children...) }
}

// NewField binds a field for label to values. The label is not validated;
// an empty label yields an empty name.
func NewField(label string, values map[string]string, onChange ChangeFunc, opts ...Option) Field {
	name := FieldKey(label)
	f := Field{
		Label:    label,
		Name:     name,
		Value:    values[name],
		OnChange: onChange,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Input returns a text input holding the bound value
func (f Field) Input() textinput.Model {
	ti := textinput.New()
	ti.Prompt = f.Prefix
	ti.Placeholder = f.Placeholder
	if f.Secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.SetValue(f.Value)
	return ti
}

// Update forwards msg to the input and reports a changed value through
// OnChange
func (f Field) Update(input textinput.Model, msg tea.Msg) (textinput.Model, tea.Cmd) {
	before := input.Value()
	input, cmd := input.Update(msg)
	if after := input.Value(); after != before && f.OnChange != nil {
		f.OnChange(f.Name, after)
	}
	return input, cmd
}

// View renders the label, the input and any children
func (f Field) View(input textinput.Model) string {
	row := lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(f.Label), input.View())
	if len(f.Children) == 0 {
		return row
	}
	lines := []string{row}
	for _, child := range f.Children {
		lines = append(lines, childStyle.Render(child))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
