// Package tui is the terminal editor that produces an adjustments file:
// which operations are published as tools, their names and descriptions.
package tui

import (
	"github.com/brizzai/auto-api/internal/parser"
	"github.com/brizzai/auto-api/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

type page int

const (
	pageMain page = iota
	pageList
	pageExport
)

// AppModel switches between the landing page, the operations list and the
// export form.
type AppModel struct {
	mainPage   MainPageModel
	listView   ListItemModel
	exportView ExportView
	exportPath string
	page       page
}

// NewAppModel creates the editor for ops. adjuster holds the adjustments
// being edited; exportPath prefills the export filename.
func NewAppModel(title string, ops []parser.Operation, adjuster *parser.Adjuster, exportPath string) AppModel {
	return AppModel{
		mainPage:   NewMainPageModel(title, ops),
		listView:   NewListItemModel(ops, adjuster),
		exportPath: exportPath,
		page:       pageMain,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.mainPage.Init(), m.listView.Init())
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OpenListItemMsg:
		m.page = pageList
		return m, m.listView.Init()

	case DoneMsg:
		m.page = pageExport
		m.exportView = NewExportView(msg.Operations, m.exportPath)
		return m, m.exportView.Init()

	case BackToMainMsg:
		m.page = pageList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pageList && !m.listView.Editing() {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		// every page keeps its layout current, visible or not
		var cmds []tea.Cmd
		for _, p := range []page{pageMain, pageList, pageExport} {
			var cmd tea.Cmd
			m, cmd = m.forward(p, msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m.forward(m.page, msg)
}

func (m AppModel) forward(p page, msg tea.Msg) (AppModel, tea.Cmd) {
	var (
		next tea.Model
		cmd  tea.Cmd
	)
	switch p {
	case pageMain:
		next, cmd = m.mainPage.Update(msg)
		m.mainPage = next.(MainPageModel)
	case pageList:
		next, cmd = m.listView.Update(msg)
		m.listView = next.(ListItemModel)
	case pageExport:
		next, cmd = m.exportView.Update(msg)
		m.exportView = next.(ExportView)
	}
	return m, cmd
}

func (m AppModel) View() string {
	switch m.page {
	case pageMain:
		return m.mainPage.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.listView.View()
	}
}

// GetOperationUpdates returns every operation with its pending changes.
func (m AppModel) GetOperationUpdates() []*models.OperationItem {
	return m.listView.GetOperationUpdates()
}

// IsFinished reports whether the adjustments were exported.
func (m AppModel) IsFinished() bool {
	return m.exportView.Success
}

// ExportedPath returns the file written by the export page.
func (m AppModel) ExportedPath() string {
	return m.exportView.Path
}
