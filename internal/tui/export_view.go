package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	adjustments "github.com/brizzai/auto-api/internal/models"
	"github.com/brizzai/auto-api/internal/tui/models"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ErrNothingSelected is returned when every operation is marked removed.
// An adjustments file without an operations list keeps everything, so such
// a file cannot be expressed.
var ErrNothingSelected = errors.New("keep at least one operation")

// ExportView handles prompting for a filename and exporting adjustments
type ExportView struct {
	operations   []*models.OperationItem
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
	Path         string
}

// NewExportView creates a new export view
func NewExportView(operations []*models.OperationItem, defaultPath string) ExportView {
	ti := textinput.New()
	ti.Placeholder = "adjustments.yaml"
	ti.SetValue(defaultPath)
	ti.Focus()
	ti.Width = 40

	return ExportView{
		operations: operations,
		textInput:  ti,
	}
}

// Init initializes the export view
func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the export view
func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToMainMsg{} }
		case "enter":
			filename := strings.TrimSpace(m.textInput.Value())
			if filename == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}
			if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
				filename += ".yaml"
			}

			if err := ExportAdjustmentsToYamlFile(m.operations, filename); err != nil {
				m.err = err
				m.exportStatus = errorMessageStyle(fmt.Sprintf("Error exporting: %v", err))
				return m, nil
			}

			m.Success = true
			m.Path = filename
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Successfully exported to %s", filename))
			// Wait for 1 second, then exit the application
			return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tea.Quit()
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the export view
func (m ExportView) View() string {
	var sb strings.Builder

	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	title := titleStyle.Render("Export Adjustments")
	sb.WriteString(centerText(title, m.width))
	sb.WriteString("\n\n")

	prompt := "Enter filename to export adjustments:"
	sb.WriteString(centerText(prompt, m.width))
	sb.WriteString("\n")

	input := m.textInput.View()
	sb.WriteString(centerText(input, m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back to editor | (enter) Export", m.width))

	return sb.String()
}

// BackToMainMsg signals to go back to the editor
type BackToMainMsg struct{}

// BuildAdjustments turns the edited items into an adjustments document.
// Paths keep their first-seen order so the output is stable.
func BuildAdjustments(items []*models.OperationItem) (*adjustments.Adjustments, error) {
	out := &adjustments.Adjustments{}

	descriptionIndex := map[string]int{}
	selectionIndex := map[string]int{}
	kept := 0

	for _, item := range items {
		op := item.Operation

		if item.NewDescription != "" && item.NewDescription != op.Description {
			i, ok := descriptionIndex[op.Path]
			if !ok {
				i = len(out.Descriptions)
				descriptionIndex[op.Path] = i
				out.Descriptions = append(out.Descriptions, adjustments.PathDescriptions{Path: op.Path})
			}
			out.Descriptions[i].Updates = append(out.Descriptions[i].Updates, adjustments.DescriptionUpdate{
				Method:         op.Method,
				NewDescription: item.NewDescription,
			})
		}

		if item.NewName != "" && item.NewName != op.ID {
			out.Renames = append(out.Renames, adjustments.ToolRename{
				Path:   op.Path,
				Method: op.Method,
				Name:   item.NewName,
			})
		}

		if item.IsRemoved {
			continue
		}
		kept++
		i, ok := selectionIndex[op.Path]
		if !ok {
			i = len(out.Operations)
			selectionIndex[op.Path] = i
			out.Operations = append(out.Operations, adjustments.PathSelection{Path: op.Path})
		}
		out.Operations[i].Methods = append(out.Operations[i].Methods, op.Method)
	}

	if len(items) > 0 && kept == 0 {
		return nil, ErrNothingSelected
	}
	// Keeping everything needs no operations list.
	if kept == len(items) {
		out.Operations = nil
	}
	return out, nil
}

// ExportAdjustmentsToYamlFile writes the adjustments built from items.
func ExportAdjustmentsToYamlFile(items []*models.OperationItem, filename string) error {
	adj, err := BuildAdjustments(items)
	if err != nil {
		return err
	}

	yamlData, err := yaml.Marshal(adj)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, yamlData, 0o644)
}

// Helper function to center text horizontally
func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}

	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
