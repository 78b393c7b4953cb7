package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/rcard"
	"github.com/mdouchement/rcard/rcar"
)

type model struct {
	table   table.Model
	updates int
}

func newTUI() *model {
	columns := []table.Column{
		{Title: "Output", Width: 12},
		{Title: "Value", Width: 28},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		table: t,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height)
	case rcard.MotorState:
		m.update(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return m.table.View()
}

func (m *model) update(s rcard.MotorState) {
	m.updates++

	m.table.SetRows(rows(s, m.updates))
}

func rows(s rcard.MotorState, updates int) []table.Row {
	return []table.Row{
		{"Command", fmt.Sprintf("%q %s", byte(s.Command), s.Motion)},
		{"Left", duty(rcar.ChannelLeft, s.LeftDuty)},
		{"Right", duty(rcar.ChannelRight, s.RightDuty)},
		{"Direction", s.Direction.String()},
		{"Indicator", fmt.Sprintf("%08b", uint8(s.Indicator))},
		{"Updates", fmt.Sprint(updates)},
	}
}

func duty(ch rcar.Channel, v uint16) string {
	return fmt.Sprintf("%5d (%3.0f%%)", v, float64(v)*100/float64(ch.Max()))
}
