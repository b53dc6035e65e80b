package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/greenroom-ai/traceviz/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// graphModel - Interactive compiled-graph preview
// =============================================================================

// graphModel is the bubbletea model for stepping through a compiled graph
// node by node. Nodes are listed in compilation order, which follows the
// pipeline's decision sequence, so walking down the list replays the
// decisions the pipeline made for the query.
type graphModel struct {
	g      graph.Graph
	cursor int
	height int
	offset int
}

// newGraphModel creates a preview model over a compiled graph.
func newGraphModel(g graph.Graph) graphModel {
	return graphModel{g: g, height: 12}
}

func (m graphModel) Init() tea.Cmd {
	return nil
}

func (m graphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.g.Nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "g", "home":
			m.cursor, m.offset = 0, 0
		case "G", "end":
			if len(m.g.Nodes) > 0 {
				m.cursor = len(m.g.Nodes) - 1
			}
			if m.cursor >= m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 12
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m graphModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Decision Graph Preview"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	if m.g.IsEmpty() {
		b.WriteString(StyleDim.Render("  (empty graph: the query produced no trace)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.offset + m.height
	if end > len(m.g.Nodes) {
		end = len(m.g.Nodes)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := m.g.Nodes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		conf := "—"
		if n.Confidence != nil {
			conf = fmt.Sprintf("%.0f%%", *n.Confidence*100)
		}

		pos := fmt.Sprintf("%d,%d", n.Position.X, n.Position.Y)
		rows = append(rows, []string{cursor, string(n.Kind), n.Label, conf, pos})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Label", "Conf", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(m.detailView())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.g.Nodes))))

	return b.String()
}

// detailView renders the selected node's optional fields and connections.
func (m graphModel) detailView() string {
	n := m.g.Nodes[m.cursor]
	var b strings.Builder

	if n.Value != nil {
		b.WriteString("  " + listDimStyle.Render("value:") + " " + StyleValue.Render(*n.Value) + "\n")
	}
	if n.Reasoning != nil {
		b.WriteString("  " + listDimStyle.Render("reasoning:") + " " + StyleValue.Render(*n.Reasoning) + "\n")
	}

	in := m.g.Incoming(n.ID)
	out := m.g.Outgoing(n.ID)
	b.WriteString("  " + listDimStyle.Render(fmt.Sprintf("edges: %d in, %d out", len(in), len(out))))
	for _, e := range out {
		if target, ok := m.g.Node(e.Target); ok {
			style := ""
			if e.StrokeStyle == graph.StrokeDashed {
				style = " (dashed)"
			}
			b.WriteString("\n    " + listDimStyle.Render(iconArrow+" "+target.Label+style))
		}
	}
	b.WriteString("\n")
	return b.String()
}
