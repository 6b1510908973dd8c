package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// editField is the operation field an EditorModal changes.
type editField int

const (
	editDescription editField = iota
	editName
)

func (f editField) String() string {
	if f == editName {
		return "tool name"
	}
	return "description"
}

// EditorModal holds the textarea used to edit one field of an operation.
type EditorModal struct {
	textarea textarea.Model
	field    editField
}

// NewEditModal creates a focused editor prefilled with initial.
func NewEditModal(field editField, initial string) EditorModal {
	ti := textarea.New()
	ti.Placeholder = "Describe what this operation does..."
	if field == editName {
		ti.Placeholder = "tool_name"
		ti.SetHeight(1)
		ti.ShowLineNumbers = false
	}
	ti.SetValue(initial)
	ti.Focus()
	return EditorModal{textarea: ti, field: field}
}

// Init returns the initial command for the modal (textarea blink).
func (m EditorModal) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles key events for the modal.
func (m EditorModal) Update(msg tea.Msg) (EditorModal, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			// Names are single words.
			if m.field == editName {
				return m, nil
			}
		default:
			if !m.textarea.Focused() {
				cmd = m.textarea.Focus()
				cmds = append(cmds, cmd)
			}
		}
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// Value returns the trimmed textarea content.
func (m EditorModal) Value() string {
	return strings.TrimSpace(m.textarea.Value())
}

// View renders the modal UI.
func (m EditorModal) View(title string) string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		editHeaderStyle.Render(fmt.Sprintf("Edit %s of %s", m.field, title)),
		m.textarea.View(),
		"(ctrl+s to save, esc to cancel)",
	) + "\n\n"
}
