package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToPick is returned when the picker has no items.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string // primary text, e.g. deployment alias
	SubLabel string // dimmed text, e.g. contract address
	Value    string // returned on selection
}

// pickerModel is the Bubble Tea model for the list picker.
type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPickerModel(title string, items []PickerItem) pickerModel {
	return pickerModel{title: title, items: items}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.items) - 1
	case "enter", " ":
		if len(m.items) > 0 {
			item := m.items[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n\n")
	for i, item := range m.items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		line := prefix + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs the list picker and returns the selected item's Value.
// Returns ("", nil) if the user cancels.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}

	final, err := tea.NewProgram(newPickerModel(title, items), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
