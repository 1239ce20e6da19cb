package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	cfio "github.com/LLNL/CallFlow-sub002/pkg/io"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// inspectCommand creates the inspect command, an interactive node browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags buildFlags
	var exported bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse Sankey nodes with their entry and exit breakdowns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, err := c.loadGraph(cmd, &flags, args[0], exported)
			if err != nil {
				return err
			}
			if len(fg.Nodes) == 0 {
				printWarning("graph has no nodes")
				return nil
			}
			_, err = tea.NewProgram(NewInspectModel(fg), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&exported, "sankey", false, "input is a Sankey export (.sankey.json)")

	return cmd
}

// loadGraph reads an export directly or builds one from a dataset.
func (c *CLI) loadGraph(cmd *cobra.Command, flags *buildFlags, path string, exported bool) (*sankey.FinalGraph, error) {
	if exported {
		return cfio.ImportSankey(path)
	}
	popts, err := c.resolveOptions(cmd, flags)
	if err != nil {
		return nil, err
	}
	ds, err := cfio.ImportDataset(path)
	if err != nil {
		return nil, err
	}
	res, err := c.newRunner().Build(cmd.Context(), ds, popts)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// =============================================================================
// InspectModel - Interactive node browser
// =============================================================================

// InspectModel is the bubbletea model for browsing a Sankey graph. The list
// view shows one row per node; enter opens the node's entry and exit edges.
type InspectModel struct {
	Graph  *sankey.FinalGraph
	Cursor int
	Height int
	Offset int
	Detail bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(fg *sankey.FinalGraph) InspectModel {
	return InspectModel{Graph: fg, Height: 15}
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
		case "esc", "backspace":
			if !m.Detail {
				return m, tea.Quit
			}
			m.Detail = false
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Graph.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m InspectModel) View() string {
	if m.Detail {
		return m.detailView()
	}
	return m.listView()
}

func (m InspectModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Sankey Nodes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Graph.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Graph.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.Label.String(),
			n.Name,
			fmt.Sprint(n.Level),
			fmtTime(n.RunTime),
			fmt.Sprint(len(n.UniqueNodeIDs)),
			fmt.Sprint(len(m.Graph.Entries(n.Label))),
			fmt.Sprint(len(m.Graph.Exits(n.Label))),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Label", "Name", "Level", "Time", "IDs", "In", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Graph.Nodes) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle().Foreground(colorWhite)
			if m.Graph.Nodes[idx].Label.IsSplit() {
				base = styleSplit
			}
			if idx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Graph.Nodes))))

	return b.String()
}

func (m InspectModel) detailView() string {
	n := m.Graph.Nodes[m.Cursor]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(n.Label.String()))
	if n.Name != "" && n.Name != n.Label.String() {
		b.WriteString(" " + StyleDim.Render(n.Name))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("level %s  time %s  instances %s\n\n",
		StyleNumber.Render(fmt.Sprint(n.Level)),
		StyleNumber.Render(fmtTime(n.RunTime)),
		StyleNumber.Render(fmt.Sprint(len(n.UniqueNodeIDs)))))

	b.WriteString(StyleHighlight.Render("Entries"))
	b.WriteString("\n")
	b.WriteString(edgeTable("From", m.Graph.Entries(n.Label), func(e sankey.FinalEdge) string { return e.SourceLabel.String() }))
	b.WriteString("\n\n")
	b.WriteString(StyleHighlight.Render("Exits"))
	b.WriteString("\n")
	b.WriteString(edgeTable("To", m.Graph.Exits(n.Label), func(e sankey.FinalEdge) string { return e.TargetLabel.String() }))

	return b.String()
}

// edgeTable renders edges with the peer label, value and contributing ids.
func edgeTable(peer string, edges []sankey.FinalEdge, label func(sankey.FinalEdge) string) string {
	if len(edges) == 0 {
		return listDimStyle.Render("  none")
	}
	rows := make([][]string, len(edges))
	for i, e := range edges {
		ids := make([]string, len(e.NodeIDs))
		for j, id := range e.NodeIDs {
			ids[j] = fmt.Sprint(id)
		}
		rows[i] = []string{label(e), fmtTime(e.Value), strings.Join(ids, " ")}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(peer, "Value", "Node IDs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// =============================================================================
// Helpers
// =============================================================================

func fmtTime(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
