package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	sandboxBadge   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(colorYellow).Padding(0, 1)
	liveBadge      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(colorGreen).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Explore a graph interactively",
		Long: `Explore a graph interactively in the terminal.

Select an entity to highlight its ownership chain, cycle the region,
type and compliance filters, and try edits in a sandbox that can be
committed or discarded as a whole.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.loadStore(input)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewBrowseModel(st), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	addInputFlag(cmd, &input)
	return cmd
}

// =============================================================================
// BrowseModel - Interactive graph explorer
// =============================================================================

// BrowseModel is the bubbletea model for exploring a store.
type BrowseModel struct {
	Store  *store.Store
	Nodes  []entity.Node // filtered view, refreshed after every change
	Cursor int
	Height int
	Offset int
	Status string // result of the last action
}

// NewBrowseModel creates a browse model over st.
func NewBrowseModel(st *store.Store) BrowseModel {
	m := BrowseModel{Store: st, Height: 15}
	m.refresh()
	return m
}

func (m *BrowseModel) refresh() {
	m.Nodes = m.Store.FilteredNodes()
	if m.Cursor >= len(m.Nodes) {
		m.Cursor = max(len(m.Nodes)-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

func (m BrowseModel) current() (entity.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Nodes) {
		return entity.Node{}, false
	}
	return m.Nodes[m.Cursor], true
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if n, ok := m.current(); ok {
				m.Store.SelectNode(n.ID)
				m.Status = "selected " + n.ID
			}
		case "esc":
			m.Store.SelectNode("")
			m.Status = "selection cleared"
		case "r":
			m.cycleFilter(func(f *store.Filters, v string) { f.Region = v },
				func(f store.Filters) string { return f.Region },
				func(n entity.Node) string { return n.Region }, "region")
		case "t":
			m.cycleFilter(func(f *store.Filters, v string) { f.EntityType = v },
				func(f store.Filters) string { return f.EntityType },
				func(n entity.Node) string { return n.EntityType }, "type")
		case "c":
			m.cycleFilter(func(f *store.Filters, v string) { f.Compliance = entity.ComplianceStatus(v) },
				func(f store.Filters) string { return string(f.Compliance) },
				func(n entity.Node) string { return string(n.ComplianceStatus) }, "compliance")
		case "f":
			m.Store.SetFilters(store.Filters{})
			m.Status = "filters cleared"
		case "p":
			if _, err := m.Store.Propagate(); err != nil {
				m.Status = err.Error()
			} else {
				m.Status = "effective ownership recomputed"
			}
		case "s":
			m.Status = "sandbox start: " + m.Store.StartSandbox().String()
		case "a":
			m.Status = "sandbox commit: " + m.Store.CommitSandbox().String()
		case "d":
			m.Status = "sandbox discard: " + m.Store.DiscardSandbox().String()
		case "x":
			if n, ok := m.current(); ok {
				m.Status = "remove " + n.ID + ": " + m.Store.RemoveNode(n.ID).String()
			}
		}
		m.refresh()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-20, 5)
	}
	return m, nil
}

// cycleFilter advances one filter field to the next value present in the
// graph, wrapping back to "no filter" after the last.
func (m *BrowseModel) cycleFilter(set func(*store.Filters, string), get func(store.Filters) string, field func(entity.Node) string, name string) {
	var values []string
	for _, n := range m.Store.Nodes() {
		if v := field(n); v != "" && !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)

	f := m.Store.Filters()
	next := ""
	if i := slices.Index(values, get(f)); i+1 < len(values) {
		next = values[i+1]
	}
	set(&f, next)
	m.Store.SetFilters(f)
	if next == "" {
		m.Status = name + " filter off"
	} else {
		m.Status = name + " = " + next
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	badge := liveBadge.Render("LIVE")
	if m.Store.Sandboxed() {
		badge = sandboxBadge.Render("SANDBOX")
	}
	b.WriteString(StyleTitle.Render("Ownership structure") + "  " + badge)
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ select  esc clear  r/t/c filter  f reset  p propagate  s/a/d sandbox  x remove  q quit"))
	b.WriteString("\n\n")

	path := m.Store.HighlightedPath()
	selected, _ := m.Store.Selection()

	end := min(m.Offset+m.Height, len(m.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		label := n.Label
		if n.IsDraft {
			label += " *"
		}
		rows = append(rows, []string{cursor, n.ID, label, orDash(n.Region), string(n.ComplianceStatus), formatPercent(n.EffectiveOwnership)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Entity", "Region", "Compliance", "Effective").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			n := m.Nodes[idx]
			base := lipgloss.NewStyle()
			if col == 4 {
				if color, ok := complianceColors[n.ComplianceStatus]; ok {
					base = base.Foreground(color)
				}
			}
			switch {
			case idx == m.Cursor:
				return base.Bold(true)
			case n.ID == selected || path.Contains(n.ID):
				return base.Foreground(colorCyan)
			case n.IsDraft:
				return base.Inherit(StyleDraft)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Nodes)), len(m.Nodes))))
	if f := m.Store.Filters(); !f.Empty() {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  filters: %s", describeFilters(f))))
	}
	b.WriteString("\n")

	if selected != "" {
		b.WriteString(panelStyle.Render(m.detail(selected)))
		b.WriteString("\n")
	}
	if legend := m.Store.Legend(); len(legend) > 0 {
		parts := make([]string, len(legend))
		for i, e := range legend {
			parts[i] = fmt.Sprintf("%s (%d)", e.EntityType, e.Count)
		}
		b.WriteString(listDimStyle.Render("legend: " + strings.Join(parts, " · ")))
		b.WriteString("\n")
	}
	if m.Status != "" {
		b.WriteString(StyleHighlight.Render(m.Status))
		b.WriteString("\n")
	}
	return b.String()
}

// detail renders the selected entity and its ownership chain.
func (m BrowseModel) detail(id string) string {
	n, ok := m.Store.Node(id)
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(highlightStyle.Render(n.Label) + listDimStyle.Render("  "+n.ID) + "\n")
	field := func(k, v string) {
		if v != "" {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("%-14s", k)) + v + "\n")
		}
	}
	field("type", n.EntityType)
	field("jurisdiction", n.Jurisdiction)
	field("tax id", n.TaxID)
	field("tax residency", n.TaxResidency)
	field("currency", n.Currency)
	field("officers", strings.Join(n.Officers, ", "))
	if n.FilingDueDate != nil {
		field("filing due", n.FilingDueDate.String())
	}
	if n.CITRate != nil {
		field("CIT rate", formatPercent(n.CITRate))
	}
	field("Pillar Two", string(n.PillarTwoStatus))
	field("effective", formatPercent(n.EffectiveOwnership))

	path := m.Store.HighlightedPath()
	if len(path.Edges) > 0 {
		g := m.Store.Graph()
		edges := g.EdgeIndex()
		links := make([]string, 0, len(path.Edges))
		for _, eid := range path.Edges {
			e := g.Edges[edges[eid]]
			links = append(links, fmt.Sprintf("%s %s %s (%s)", e.Source, iconArrow, e.Target, formatPercent(e.OwnershipPercentage)))
		}
		field("owned via", strings.Join(links, "\n"+strings.Repeat(" ", 14)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeFilters(f store.Filters) string {
	var parts []string
	if f.Region != "" {
		parts = append(parts, "region="+f.Region)
	}
	if f.EntityType != "" {
		parts = append(parts, "type="+f.EntityType)
	}
	if f.Compliance != "" {
		parts = append(parts, "compliance="+string(f.Compliance))
	}
	return strings.Join(parts, " ")
}
