package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/carepath/pkg/editor"
	"github.com/matzehuels/carepath/pkg/element"
	"github.com/matzehuels/carepath/pkg/flow"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listActiveStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(60)
)

// =============================================================================
// InspectModel - Interactive node browser
// =============================================================================

// InspectModel is the bubbletea model for browsing the elements of a
// session. Selecting a row makes the node active in the element manager,
// which refreshes its badges and pendency.
type InspectModel struct {
	Session *editor.Session
	Nodes   []*flow.Node
	Cursor  int
	Height  int
	Offset  int
	Status  string
}

// NewInspectModel lists the user-created nodes of s in insertion order.
func NewInspectModel(s *editor.Session) InspectModel {
	var nodes []*flow.Node
	for _, n := range s.Graph().Nodes() {
		if n.Type.Creatable() {
			nodes = append(nodes, n)
		}
	}
	return InspectModel{Session: s, Nodes: nodes, Height: 15}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Nodes) == 0 {
				return m, nil
			}
			n := m.Nodes[m.Cursor]
			m.Session.Elements().Select(n.ID)
			m.Status = "selected " + n.ID
		case "esc":
			m.Session.Elements().Deselect()
			m.Status = "selection cleared"
		case "t":
			m.Status = m.toggle()
		}
	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-8)
	}
	return m, nil
}

// toggle flips the recommendation list of the node under the cursor.
func (m InspectModel) toggle() string {
	if len(m.Nodes) == 0 {
		return ""
	}
	n := m.Nodes[m.Cursor]
	visible, ok := m.Session.Elements().ToggleRecommendation(element.TogglerID(n.ID))
	switch {
	case !ok:
		return "no recommendation list (open with --read-only)"
	case visible:
		return "recommendations shown"
	default:
		return "recommendations hidden"
	}
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Inspect Flowchart"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  esc deselect  t toggle list  q quit"))
	b.WriteString("\n\n")

	active := ""
	if sel, ok := m.Session.Elements().Selected(); ok {
		active = sel.ID
	}

	var list strings.Builder
	end := min(m.Offset+m.Height, len(m.Nodes))
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-18s %s", cursor, n.Type, Truncate(nodeName(n), 28))
		switch {
		case i == m.Cursor:
			list.WriteString(listSelectedStyle.Render(line))
		case n.ID == active:
			list.WriteString(listActiveStyle.Render(line))
		default:
			list.WriteString(listNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}
	if len(m.Nodes) == 0 {
		list.WriteString(listDimStyle.Render("  no elements"))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", m.detail()))
	b.WriteString("\n")
	if m.Status != "" {
		b.WriteString(listDimStyle.Render("  " + m.Status))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Nodes)), len(m.Nodes))))

	return b.String()
}

// detail renders the node under the cursor with its blocks, badges and,
// when active, its pendencies.
func (m InspectModel) detail() string {
	if len(m.Nodes) == 0 {
		return ""
	}
	n := m.Nodes[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(nodeName(n)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %s", n.ID, n.Type)))
	b.WriteString("\n")

	if !n.Type.OwnsMetadata() {
		return detailStyle.Render(b.String())
	}

	if badges := m.Session.Elements().Badges(n.ID); len(badges) > 0 {
		b.WriteString(renderBadges(badges))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(n.Metadata) == 0 {
		b.WriteString(listDimStyle.Render("no recommendations"))
	}
	for _, block := range n.Metadata {
		b.WriteString(blockSummary(block))
		b.WriteString("\n")
	}

	if sel, ok := m.Session.Elements().Selected(); ok && sel.ID == n.ID {
		for _, p := range m.Session.Metadata().Pendencies() {
			b.WriteString(StyleWarning.Render("pending " + p.String()))
			b.WriteString("\n")
		}
	}
	return detailStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func nodeName(n *flow.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
