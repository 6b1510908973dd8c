package tui

import (
	"fmt"
	"slices"

	"github.com/brizzai/auto-api/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type itemKeys struct {
	remove     key.Binding
	restoreAll key.Binding
}

func newItemKeys() itemKeys {
	return itemKeys{
		remove: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "remove/restore"),
		),
		restoreAll: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "restore all"),
		),
	}
}

// newItemDelegate renders operations and handles the per-item keys.
func newItemDelegate(keys itemKeys) list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(accent).BorderForeground(accent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.BorderForeground(accent)

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok {
			return nil
		}
		switch {
		case key.Matches(keyMsg, keys.remove):
			item, ok := m.SelectedItem().(models.OperationItem)
			if !ok {
				return nil
			}
			item = item.ToggleRemoved()
			refilter := m.SetItem(m.GlobalIndex(), item)
			status := item.Name() + " restored"
			if item.IsRemoved {
				status = item.Name() + " will not be published"
			}
			return tea.Batch(refilter, m.NewStatusMessage(statusMessageStyle(status)))

		case key.Matches(keyMsg, keys.restoreAll):
			items := slices.Clone(m.Items())
			restored := 0
			for i, it := range items {
				if op, ok := it.(models.OperationItem); ok && op.IsRemoved {
					items[i] = op.ToggleRemoved()
					restored++
				}
			}
			return tea.Batch(m.SetItems(items),
				m.NewStatusMessage(statusMessageStyle(fmt.Sprintf("Restored %s", pluralize(restored, "operation")))))
		}
		return nil
	}

	help := []key.Binding{keys.remove, keys.restoreAll}
	d.ShortHelpFunc = func() []key.Binding { return help }
	d.FullHelpFunc = func() [][]key.Binding { return [][]key.Binding{help} }
	return d
}
