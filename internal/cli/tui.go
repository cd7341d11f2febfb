package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/metavis/pkg/refdata"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// Pathway choices
// =============================================================================

// pathwayChoice is one pathway offered by the picker.
type pathwayChoice struct {
	ID           int64
	Name         string
	Superpathway string
	// Nodes is the number of the pathway's enzymes; Present how many of them
	// occur in the table.
	Nodes   int
	Present int
}

// pathwayChoices summarizes memberships per pathway, ordered by how many of
// the table's enzymes (present) each pathway contains, then by id.
func pathwayChoices(ms []refdata.Membership, present map[string]bool) []pathwayChoice {
	byID := make(map[int64]*pathwayChoice)
	var order []int64
	for _, m := range ms {
		if m.PathwayID == 0 {
			continue
		}
		pc, ok := byID[m.PathwayID]
		if !ok {
			pc = &pathwayChoice{ID: m.PathwayID, Name: m.PathwayName, Superpathway: m.Superpathway}
			byID[m.PathwayID] = pc
			order = append(order, m.PathwayID)
		}
		pc.Nodes++
		if present[m.EC] {
			pc.Present++
		}
	}

	out := make([]pathwayChoice, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortStableFunc(out, func(a, b pathwayChoice) int {
		if c := cmp.Compare(b.Present, a.Present); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// =============================================================================
// PathwayListModel - Interactive pathway selection
// =============================================================================

// PathwayListModel is the bubbletea model for interactive pathway selection.
type PathwayListModel struct {
	Pathways []pathwayChoice
	Cursor   int
	Selected *pathwayChoice
	Height   int
	Offset   int
}

// NewPathwayListModel creates a new pathway list model.
func NewPathwayListModel(pathways []pathwayChoice) PathwayListModel {
	return PathwayListModel{Pathways: pathways, Height: 15}
}

func (m PathwayListModel) Init() tea.Cmd {
	return nil
}

func (m PathwayListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Pathways)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Pathways) == 0 || m.Pathways[m.Cursor].Present == 0 {
				return m, nil
			}
			p := m.Pathways[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m PathwayListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Pathway"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Pathways))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Pathways[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		super := p.Superpathway
		if super == "" {
			super = "—"
		}
		rows = append(rows, []string{
			cursor,
			strconv.FormatInt(p.ID, 10),
			p.Name,
			super,
			fmt.Sprintf("%d/%d", p.Present, p.Nodes),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Pathway", "Superpathway", "Enzymes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Pathways) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			if m.Pathways[idx].Present == 0 {
				return base.Foreground(colorDim)
			}
			if col == 3 {
				return base.Foreground(colorGray)
			}
			return base.Foreground(colorGreen)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Pathways)), len(m.Pathways))))

	return b.String()
}

// pickPathway runs the picker and returns the chosen pathway id, or 0 if the
// user quit without choosing.
func pickPathway(choices []pathwayChoice) (int, error) {
	final, err := tea.NewProgram(NewPathwayListModel(choices)).Run()
	if err != nil {
		return 0, err
	}
	fm, ok := final.(PathwayListModel)
	if !ok || fm.Selected == nil {
		return 0, nil
	}
	return int(fm.Selected.ID), nil
}
