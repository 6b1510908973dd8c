package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brizzai/auto-api/internal/parser"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// previewLimit is the number of operations listed on the landing page.
const previewLimit = 6

var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

type mainPageKeys struct {
	open key.Binding
	quit key.Binding
}

// MainPageModel is the landing page: a summary of the document's
// operations before the editor opens.
type MainPageModel struct {
	keys       mainPageKeys
	width      int
	height     int
	title      string
	operations []parser.Operation
	byMethod   map[string]int
	byTag      map[string]int
}

// OpenListItemMsg is sent when the user chooses to open the operations editor
type OpenListItemMsg struct{}

// NewMainPageModel summarizes operations for the landing page.
func NewMainPageModel(title string, operations []parser.Operation) MainPageModel {
	m := MainPageModel{
		keys: mainPageKeys{
			open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit operations")),
			quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		},
		title:      title,
		operations: operations,
		byMethod:   map[string]int{},
		byTag:      map[string]int{},
	}
	for _, op := range operations {
		m.byMethod[op.Method]++
		if len(op.Tags) == 0 {
			m.byTag["untagged"]++
		}
		for _, tag := range op.Tags {
			m.byTag[tag]++
		}
	}
	return m
}

func (m MainPageModel) Init() tea.Cmd {
	return nil
}

func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenListItemMsg{} }
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	width := max(m.width-8, 20)

	heading := "auto-api"
	if m.title != "" {
		heading = m.title
	}

	intro := lipgloss.NewStyle().Width(width).Render(fmt.Sprintf(
		"The document declares %s. Remove the ones that should not become tools, "+
			"rename them or give them descriptions that say when to call them.",
		pluralize(len(m.operations), "operation")))

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.methodSummary()),
		" ",
		panelStyle.Render(m.tagSummary()),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(heading),
		"",
		intro,
		"",
		stats,
		"",
		panelStyle.Width(width).Render(m.preview()),
		"",
		helpTextStyle.Render("enter: edit operations • q: quit"),
	)
	return docStyle.Render(content)
}

func (m MainPageModel) methodSummary() string {
	var b strings.Builder
	b.WriteString(editHeaderStyle.Render("Methods"))
	for _, method := range methodOrder {
		if n := m.byMethod[method]; n > 0 {
			fmt.Fprintf(&b, "\n%s %d", methodLabel(method), n)
		}
	}
	return b.String()
}

func (m MainPageModel) tagSummary() string {
	tags := make([]string, 0, len(m.byTag))
	for tag := range m.byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if m.byTag[tags[i]] != m.byTag[tags[j]] {
			return m.byTag[tags[i]] > m.byTag[tags[j]]
		}
		return tags[i] < tags[j]
	})

	var b strings.Builder
	b.WriteString(editHeaderStyle.Render("Tags"))
	for i, tag := range tags {
		if i == 4 {
			fmt.Fprintf(&b, "\n+%d more", len(tags)-i)
			break
		}
		fmt.Fprintf(&b, "\n%-12s %d", tag, m.byTag[tag])
	}
	return b.String()
}

func (m MainPageModel) preview() string {
	var b strings.Builder
	for i, op := range m.operations {
		if i == previewLimit {
			fmt.Fprintf(&b, "... and %d more", len(m.operations)-previewLimit)
			break
		}
		fmt.Fprintf(&b, "%s %s  %s\n", methodLabel(op.Method), op.Path, helpTextStyle.Render(op.ID))
	}
	return strings.TrimRight(b.String(), "\n")
}

// pluralize returns the count followed by the noun, pluralized
func pluralize(count int, singular string) string {
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
