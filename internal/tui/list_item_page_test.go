package tui

import (
	"testing"

	"github.com/brizzai/auto-api/internal/parser"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editorOperations() []parser.Operation {
	return []parser.Operation{
		{ID: "list_accounts", Method: "GET", Path: "/accounts", Summary: "List accounts"},
		{ID: "POST_accounts", Method: "POST", Path: "/accounts", Summary: "Create an account"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m ListItemModel, msg tea.Msg) ListItemModel {
	t.Helper()
	next, _ := m.Update(msg)
	lm, ok := next.(ListItemModel)
	require.True(t, ok)
	return lm
}

func TestListItemModel_ToggleRemoved(t *testing.T) {
	m := NewListItemModel(editorOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes("x"))
	items := m.GetOperationUpdates()
	assert.True(t, items[0].IsRemoved)
	assert.False(t, items[1].IsRemoved)

	m = update(t, m, runes("x"))
	assert.False(t, m.GetOperationUpdates()[0].IsRemoved)
}

func TestListItemModel_RestoreAll(t *testing.T) {
	m := NewListItemModel(editorOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes("x"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, runes("x"))
	for _, item := range m.GetOperationUpdates() {
		require.True(t, item.IsRemoved)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	for _, item := range m.GetOperationUpdates() {
		assert.False(t, item.IsRemoved, item.Name())
	}

	m = update(t, m, runes("R"))
	assert.True(t, m.Editing(), "R still renames")
}

func TestListItemModel_ToggleRemovedWhileFiltered(t *testing.T) {
	m := NewListItemModel(editorOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m.list.SetFilterText("Create")
	require.Len(t, m.list.VisibleItems(), 1)

	m = update(t, m, runes("x"))
	items := m.GetOperationUpdates()
	assert.False(t, items[0].IsRemoved, "list_accounts is hidden by the filter")
	assert.True(t, items[1].IsRemoved, "POST_accounts is the selected match")
}

func TestMainPageModel_Summary(t *testing.T) {
	ops := append(editorOperations(), parser.Operation{ID: "delete_account", Method: "DELETE", Path: "/accounts/{id}", Tags: []string{"admin"}})
	m := NewMainPageModel("Accounts API", ops)
	assert.Equal(t, map[string]int{"GET": 1, "POST": 1, "DELETE": 1}, m.byMethod)
	assert.Equal(t, map[string]int{"untagged": 2, "admin": 1}, m.byTag)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := next.View()
	assert.Contains(t, view, "Accounts API")
	assert.Contains(t, view, "3 operations")
	assert.Contains(t, view, "delete_account")
}

func TestListItemModel_EditAndRename(t *testing.T) {
	m := NewListItemModel(editorOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes("e"))
	require.True(t, m.Editing())
	assert.Equal(t, "List accounts", m.editModal.Value())
	m.editModal.textarea.SetValue("List every customer account")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, m.Editing())
	assert.Equal(t, "List every customer account", m.GetOperationUpdates()[0].NewDescription)

	m = update(t, m, runes("r"))
	require.True(t, m.Editing())
	m.editModal.textarea.SetValue("accounts_page")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "accounts_page", m.GetOperationUpdates()[0].Name())

	m = update(t, m, runes("r"))
	m.editModal.textarea.SetValue("discarded")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Editing())
	assert.Equal(t, "accounts_page", m.GetOperationUpdates()[0].Name())
}

func TestListItemModel_RemovedItemsAreNotEditable(t *testing.T) {
	m := NewListItemModel(editorOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = update(t, m, runes("x"))
	m = update(t, m, runes("e"))
	assert.False(t, m.Editing())
}

func TestAppModel_Navigation(t *testing.T) {
	var model tea.Model = NewAppModel("Accounts", editorOperations(), nil, "adjustments.yaml")
	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, model.View(), "Accounts")
	assert.Contains(t, model.View(), "2 operations")

	model, _ = model.Update(OpenListItemMsg{})
	assert.Equal(t, pageList, model.(AppModel).page)

	model, _ = model.Update(DoneMsg{Operations: model.(AppModel).GetOperationUpdates()})
	app := model.(AppModel)
	assert.Equal(t, pageExport, app.page)
	assert.Equal(t, "adjustments.yaml", app.exportView.textInput.Value())
	assert.False(t, app.IsFinished())

	model, _ = model.Update(BackToMainMsg{})
	assert.Equal(t, pageList, model.(AppModel).page)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, pageMain, model.(AppModel).page)
}
