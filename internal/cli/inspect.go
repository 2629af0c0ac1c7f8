package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/graph"
)

// List styles.
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the interactive graph browser.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "inspect <root>",
		Short: "Browse the dependency graph interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := opts.run(c, cmd, args[0])
			if err != nil {
				return err
			}
			if res.Graph.NodeCount() == 0 {
				printInfo("Nothing to inspect: no artifacts found")
				return nil
			}

			model := newGraphModel(res)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	opts.registerFlags(cmd)
	return cmd
}

// graphModel is the bubbletea model for browsing analyzed artifacts.
type graphModel struct {
	res    *engine.Result
	nodes  []*graph.Node
	cursor int
	offset int
	height int
	detail bool // show the selected node's neighborhood
}

func newGraphModel(res *engine.Result) graphModel {
	return graphModel{
		res:    res,
		nodes:  res.Graph.Nodes(),
		height: 15,
	}
}

func (m graphModel) Init() tea.Cmd {
	return nil
}

func (m graphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.detail {
				m.detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.detail && m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if !m.detail && m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.detail = !m.detail
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m graphModel) View() string {
	if m.detail {
		return m.detailView()
	}
	return m.listView()
}

func (m graphModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Artifacts"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.ID,
			n.Path,
			fmt.Sprintf("%d", m.res.Graph.InDegree(n.ID)),
			fmt.Sprintf("%d", m.res.Graph.OutDegree(n.ID)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Artifact", "Path", "In", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes))))

	return b.String()
}

func (m graphModel) detailView() string {
	n := m.nodes[m.cursor]
	var b strings.Builder

	b.WriteString(StyleTitle.Render(n.ID))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %s", n.Family, n.Path)))
	b.WriteString("\n\n")

	b.WriteString(StyleValue.Render("Depends on"))
	b.WriteString("\n")
	writeNeighborList(&b, m.res.Graph.Children(n.ID))

	b.WriteString("\n")
	b.WriteString(StyleValue.Render("Depended on by"))
	b.WriteString("\n")
	writeNeighborList(&b, m.res.Graph.Parents(n.ID))

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎/q back"))
	return b.String()
}

func writeNeighborList(b *strings.Builder, ids []string) {
	if len(ids) == 0 {
		b.WriteString(listDimStyle.Render("  (none)"))
		b.WriteString("\n")
		return
	}
	for _, id := range ids {
		b.WriteString("  " + id + "\n")
	}
}
