package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user leaves the prompt without submitting.
var ErrCancelled = errors.New("prompt cancelled")

// PromptModel is a single-line text prompt.
type PromptModel struct {
	title     string
	input     textinput.Model
	help      help.Model
	keys      keyMap
	value     string
	hint      string
	cancelled bool
}

// NewPromptModel creates a focused prompt with the given title and placeholder.
func NewPromptModel(title, placeholder string) PromptModel {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = "> "
	input.CharLimit = 2048
	input.Width = 80
	input.Focus()

	return PromptModel{
		title: title,
		input: input,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init starts the cursor blinking.
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses; enter submits a non-empty value, esc cancels.
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.submit):
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				m.hint = "Paste the full URL from the browser's address bar."
				return m, nil
			}
			m.value = value
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the prompt.
func (m PromptModel) View() string {
	if m.value != "" || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(Styles.Title(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.hint != "" {
		b.WriteString(Styles.Warn(m.hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Value returns the submitted value and whether one was submitted.
func (m PromptModel) Value() (string, bool) {
	return m.value, m.value != "" && !m.cancelled
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Prompt asks for one line of input.
//
// When in and out are both terminals the bubbletea [PromptModel] is used,
// otherwise the title is printed and a single line is read from in.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, title, placeholder string) (string, error) {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK && IsTerminal(inFile) && IsTerminal(outFile) {
		return promptTUI(ctx, in, out, title, placeholder)
	}
	return ReadLine(in, out, title)
}

func promptTUI(ctx context.Context, in io.Reader, out io.Writer, title, placeholder string) (string, error) {
	program := tea.NewProgram(NewPromptModel(title, placeholder), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	value, ok := final.(PromptModel).Value()
	if !ok {
		return "", ErrCancelled
	}
	return value, nil
}

// ReadLine prints title and reads one trimmed, non-empty line from in.
func ReadLine(in io.Reader, out io.Writer, title string) (string, error) {
	if out != nil {
		fmt.Fprintf(out, "%s\n> ", title)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", ErrCancelled
	}

	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return "", shared.NewError(shared.KindConfig, "no input entered", 0, nil, nil)
	}
	return line, nil
}
