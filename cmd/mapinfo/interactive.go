package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/mapped-types/catalog"
)

type interactiveModel struct {
	err      error
	set      *catalog.Set
	filename string
	result   trip
	input    textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateSelectType modelState = iota
	stateInputValue
	stateShowResult
)

func newInteractiveModel(filename string, set *catalog.Set) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		set:      set,
		state:    stateSelectType,
	}
}

type convertedMsg struct {
	err    error
	result trip
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputValue {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.selected < m.set.Len()-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectType:
				if m.set.Len() == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInputValue
				return m, textinput.Blink

			case stateInputValue:
				return m, m.convert

			case stateShowResult:
				m.state = stateSelectType
				m.result = trip{}
				m.err = nil
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateInputValue:
				m.state = stateSelectType
			case stateShowResult:
				m.state = stateSelectType
				m.result = trip{}
				m.err = nil
			}
			return m, nil
		}

	case convertedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInputValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) prepareInput() {
	e := m.set.Entries()[m.selected]
	ti := textinput.New()
	ti.Prompt = e.Name + ": "
	ti.Placeholder = placeholder(e)
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) convert() tea.Msg {
	e := m.set.Entries()[m.selected]
	rt, err := roundTrip(e, m.input.Value())
	return convertedMsg{result: rt, err: err}
}

func placeholder(e catalog.Entry) string {
	switch e.Kind {
	case catalog.KindEnum:
		return "symbol or integer"
	case catalog.KindBitmask:
		return "flags separated by , or a number"
	case catalog.KindBool:
		return "true or false"
	}
	return e.Type.RealType().String()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Mapped Types"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	entries := m.set.Entries()
	switch m.state {
	case stateSelectType:
		b.WriteString("Select a type to try:\n\n")
		for i, e := range entries {
			line := m.formatEntry(e)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter try • q quit"))

	case stateInputValue:
		e := entries[m.selected]
		b.WriteString(fmt.Sprintf("Converting %s\n\n", nameStyle.Render(e.Name)))
		b.WriteString(m.input.View())
		if syms := symbols(e); len(syms) > 0 {
			b.WriteString("\n")
			b.WriteString(typeStyle.Render(strings.Join(syms, " ")))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert • esc back"))

	case stateShowResult:
		e := entries[m.selected]
		b.WriteString(fmt.Sprintf("Round trip through %s:\n\n", nameStyle.Render(e.Name)))
		if m.result.host != nil {
			b.WriteString(fmt.Sprintf("host:   %#v\n", m.result.host))
		}
		if m.result.native != nil {
			b.WriteString(resultStyle.Render(fmt.Sprintf("native: %#v", m.result.native)))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(fmt.Sprintf("back:   %#v", m.result.back)))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatEntry(e catalog.Entry) string {
	return nameStyle.Render(e.Name) + " " + typeStyle.Render(describe(e))
}

func runInteractive(filename string, set *catalog.Set) error {
	p := tea.NewProgram(newInteractiveModel(filename, set), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
