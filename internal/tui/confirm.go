package tui

import (
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// NewPrompter creates a Prompter on stdin/stderr. When stdin is not a
// terminal the form falls back to huh's line based accessible mode.
func NewPrompter() *Prompter {
	return &Prompter{
		in:         os.Stdin,
		out:        os.Stderr,
		accessible: !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// NewAccessiblePrompter reads answers line by line from in.
func NewAccessiblePrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, accessible: true}
}

// Confirm shows message with Yes/No options. Aborting the form (esc,
// ctrl+c) counts as "no".
func (p *Prompter) Confirm(message string) (bool, error) {
	confirmed := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(message).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).
		WithTheme(NewHuhTheme()).
		WithShowHelp(true).
		WithAccessible(p.accessible).
		WithInput(p.in).
		WithOutput(p.out).
		WithProgramOptions(tea.WithInput(p.in), tea.WithOutput(p.out))

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}

	return confirmed, nil
}
