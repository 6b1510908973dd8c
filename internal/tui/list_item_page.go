package tui

import (
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"

	tea "github.com/charmbracelet/bubbletea"
)

// listKeyMap holds key bindings for the list actions.
type listKeyMap struct {
	editDescription key.Binding
	rename          key.Binding
	save            key.Binding
	cancel          key.Binding
	finish          key.Binding
	quit            key.Binding
}

type DoneMsg struct {
	Operations []*models.OperationItem
}

// newListKeyMap creates a new listKeyMap with default bindings.
func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		editDescription: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("E", "Edit Description"),
		),
		rename: key.NewBinding(
			key.WithKeys("R", "r"),
			key.WithHelp("R", "Rename Tool"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("F", "Finish"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ListItemModel for the TUI
type ListItemModel struct {
	list      list.Model
	keys      *listKeyMap
	editing   bool
	editIndex int
	editModal EditorModal // Holds the edit modal when editing
}

// Init returns the initial command for the list model.
func (m ListItemModel) Init() tea.Cmd {
	return nil
}

// Editing reports whether the editor modal is open.
func (m ListItemModel) Editing() bool {
	return m.editing
}

// Update handles messages for the list and modal, including editing logic.
func (m ListItemModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditModeUpdate(msg)
	}
	return m.handleListModeUpdate(msg)
}

// handleEditModeUpdate handles messages when in edit mode
func (m ListItemModel) handleEditModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.editing = false
			return m, nil
		case key.Matches(msg, m.keys.save):
			m.editing = false
			item, ok := m.list.Items()[m.editIndex].(models.OperationItem)
			if !ok {
				return m, nil
			}
			value := m.editModal.Value()
			var updated models.OperationItem
			switch {
			case m.editModal.field == editName && value != "" && value != item.Name():
				updated = item.Renamed(value)
			case m.editModal.field == editDescription && value != item.EffectiveDescription():
				updated = item.UpdatedDescription(value)
			default:
				return m, nil
			}
			cmd := m.list.SetItem(m.editIndex, updated)
			return m, tea.Batch(cmd, m.list.NewStatusMessage(statusMessageStyle("Updated "+m.editModal.field.String()+" of "+updated.Name())))
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}
	var cmd tea.Cmd
	m.editModal, cmd = m.editModal.Update(msg)
	return m, cmd
}

// handleListModeUpdate handles messages when in list mode
func (m ListItemModel) handleListModeUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys typed into the filter belong to the filter.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.editDescription), key.Matches(msg, m.keys.rename):
			item, ok := m.list.SelectedItem().(models.OperationItem)
			if !ok {
				return m, nil
			}
			if item.IsRemoved {
				return m, m.list.NewStatusMessage(statusMessageStyle("Can't edit removed operations"))
			}
			m.editing = true
			m.editIndex = m.globalIndex()
			if key.Matches(msg, m.keys.rename) {
				m.editModal = NewEditModal(editName, item.Name())
			} else {
				m.editModal = NewEditModal(editDescription, item.EffectiveDescription())
			}
			return m, m.editModal.Init()
		case key.Matches(msg, m.keys.finish):
			return m, func() tea.Msg {
				return DoneMsg{Operations: m.GetOperationUpdates()}
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// globalIndex maps the selection to its position in the unfiltered items.
func (m ListItemModel) globalIndex() int {
	return m.list.GlobalIndex()
}

// View renders either the list or the modal
func (m ListItemModel) View() string {
	if m.editing {
		title := ""
		if item, ok := m.list.Items()[m.editIndex].(models.OperationItem); ok {
			title = item.Name()
		}
		return docStyle.Render(m.editModal.View(title))
	}
	return docStyle.Render(m.list.View())
}

// NewListItemModel creates the editor list. Items start from the state
// described by adjuster: removed when not selected, with its overrides.
func NewListItemModel(ops []parser.Operation, adjuster *parser.Adjuster) ListItemModel {
	listKeys := newListKeyMap()
	if adjuster == nil {
		adjuster = parser.NewAdjuster()
	}

	items := make([]list.Item, len(ops))
	for i, op := range ops {
		items[i] = models.OperationItem{
			Operation:      op,
			NewDescription: adjuster.Description(op.Path, op.Method, ""),
			NewName:        adjuster.Name(op.Path, op.Method, ""),
			IsRemoved:      !adjuster.Selected(op.Path, op.Method),
		}
	}
	l := list.New(items, newItemDelegate(newItemKeys()), 0, 0)
	l.Title = "Operations"
	l.Styles.Title = titleStyle
	l.SetShowFilter(true)

	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.editDescription,
			listKeys.rename,
			listKeys.finish,
			listKeys.quit,
		}
	}
	return ListItemModel{list: l, keys: listKeys, editIndex: -1}
}

// GetOperationUpdates returns every item with its edits, in document order.
// Filtering only narrows the view; hidden items are still exported.
func (m ListItemModel) GetOperationUpdates() []*models.OperationItem {
	items := m.list.Items()
	result := make([]*models.OperationItem, 0, len(items))
	for _, item := range items {
		op, ok := item.(models.OperationItem)
		if !ok {
			continue
		}
		result = append(result, &op)
	}
	return result
}
