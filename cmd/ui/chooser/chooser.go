// Package chooser is the interactive candidate picker shown when no project
// can be auto-started.
package chooser

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#01FAC6")).Bold(true)
	titleStyle            = lipgloss.NewStyle().Background(lipgloss.Color("#01FAC6")).Foreground(lipgloss.Color("#030303")).Bold(true).Padding(0, 1, 0)
	selectedItemStyle     = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("170")).Bold(true)
	selectedItemDescStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("170"))
	descriptionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#40BDA3"))
)

// Item is one selectable candidate.
type Item struct {
	Title string
	Desc  string
}

type selection struct {
	choice string
}

type model struct {
	cursor  int
	choices []Item
	choice  *selection
	header  string
	exit    *bool
}

func (m model) Init() tea.Cmd {
	return nil
}

func initialModel(choices []Item, sel *selection, header string, exitPtr *bool) model {
	return model{
		choices: choices,
		choice:  sel,
		header:  titleStyle.Render(header),
		exit:    exitPtr,
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.exit != nil {
				*m.exit = true
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter", "y":
			m.choice.choice = m.choices[m.cursor].Title
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	s := m.header + "\n\n"

	for i, choice := range m.choices {
		cursor := " "
		title := focusedStyle.Render(choice.Title)
		desc := descriptionStyle.Render(choice.Desc)
		if m.cursor == i {
			cursor = focusedStyle.Render(">")
			title = selectedItemStyle.Render(choice.Title)
			desc = selectedItemDescStyle.Render(choice.Desc)
		}

		s += fmt.Sprintf("%s %s\n  %s\n\n", cursor, title, desc)
	}

	s += fmt.Sprintf("Press %s to launch, %s to exit.\n\n",
		focusedStyle.Render("enter"), focusedStyle.Render("esc/q"))
	return s
}

// ShowMenu displays the picker and returns the chosen item's title.
func ShowMenu(choices []Item, header string) (string, error) {
	sel := &selection{}
	exit := false

	m := initialModel(choices, sel, header, &exit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("error running menu: %w", err)
	}

	final := finalModel.(model)
	if exit && final.choice.choice == "" {
		return "", fmt.Errorf("selection cancelled")
	}

	return final.choice.choice, nil
}
