package models

import (
	"fmt"

	"github.com/brizzai/auto-api/internal/parser"
	"github.com/charmbracelet/lipgloss"
)

// OperationItem wraps an operation for display in the list
// Implements list.Item
type OperationItem struct {
	Operation      parser.Operation
	NewDescription string
	NewName        string
	IsRemoved      bool
}

func (i OperationItem) Title() string {
	return fmt.Sprintf("%s %s  %s", i.Operation.Method, i.Operation.Path, i.Name())
}

// Name is the tool name the operation will be published under.
func (i OperationItem) Name() string {
	if i.NewName != "" {
		return i.NewName
	}
	return i.Operation.ID
}

func (i OperationItem) Description() string {
	if i.IsRemoved {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Render("[Removed]")
	}
	return i.EffectiveDescription()
}

// EffectiveDescription is the override when set, else the document text.
func (i OperationItem) EffectiveDescription() string {
	if i.NewDescription != "" {
		return i.NewDescription
	}
	return i.Operation.Text()
}

func (i OperationItem) UpdatedDescription(newDescription string) OperationItem {
	i.NewDescription = newDescription
	return i
}

// Renamed sets the published name; the original id clears the rename.
func (i OperationItem) Renamed(name string) OperationItem {
	if name == i.Operation.ID {
		name = ""
	}
	i.NewName = name
	return i
}

func (i OperationItem) ToggleRemoved() OperationItem {
	i.IsRemoved = !i.IsRemoved
	return i
}

func (i OperationItem) FilterValue() string {
	return i.Operation.ID + " " + i.Operation.Path + " " + i.EffectiveDescription()
}
