// Package ui holds the terminal presentation pieces: a lipgloss [Palette] for
// command output and a bubbletea prompt for pasting the OAuth redirect URL.
//
// [PromptModel] follows bubbletea's Init/Update/View pattern. [Prompt] runs it
// on a terminal and falls back to a plain line read when input is not a TTY.
package ui
