package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the prompt.
type keyMap struct {
	submit key.Binding
	cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.cancel}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.submit, k.cancel}}
}
