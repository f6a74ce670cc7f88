// Package prompt reads user input for forms and the interactive shell.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var (
	// ErrNonInteractive is returned when input is needed but there is no terminal.
	ErrNonInteractive = errors.New("input required but not running interactively")
	// ErrAborted is returned when the user interrupts a prompt or input ends.
	ErrAborted = errors.New("aborted")
)

// Prompter asks the user for values.
type Prompter interface {
	// Input asks for a line of text. def is shown and used for empty answers.
	Input(label, def string, validate func(string) error) (string, error)
	// Secret asks for a value without echoing it.
	Secret(label string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(label string) (bool, error)
	// Select asks the user to pick one of items and returns its index.
	Select(label string, items []string) (int, error)
}

// IsTerminal reports whether stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Terminal prompts on the controlling terminal.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a terminal prompter that echoes secrets' labels to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func mapPromptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrAborted
	}
	return err
}

func (t *Terminal) Input(label, def string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	if validate != nil {
		p.Validate = promptui.ValidateFunc(validate)
	}
	value, err := p.Run()
	if err != nil {
		return "", mapPromptErr(err)
	}
	return value, nil
}

func (t *Terminal) Secret(label string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(raw), nil
}

func (t *Terminal) Confirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := p.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, mapPromptErr(err)
	}
	return true, nil
}

func (t *Terminal) Select(label string, items []string) (int, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}
	index, _, err := p.Run()
	if err != nil {
		return -1, mapPromptErr(err)
	}
	return index, nil
}

// NonInteractive fails every prompt with ErrNonInteractive.
type NonInteractive struct{}

func (NonInteractive) Input(label, def string, validate func(string) error) (string, error) {
	return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
}

func (NonInteractive) Secret(label string) (string, error) {
	return "", fmt.Errorf("%s: %w", label, ErrNonInteractive)
}

func (NonInteractive) Confirm(label string) (bool, error) {
	return false, fmt.Errorf("%s: %w", label, ErrNonInteractive)
}

func (NonInteractive) Select(label string, items []string) (int, error) {
	return -1, fmt.Errorf("%s: %w", label, ErrNonInteractive)
}

// Lines answers prompts from a line-oriented reader, one line per prompt.
// The shell uses it when stdin is piped.
type Lines struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	echo    io.Writer
}

// NewLines reads answers from r. Labels are written to echo when it is non-nil.
func NewLines(r io.Reader, echo io.Writer) *Lines {
	return &Lines{scanner: bufio.NewScanner(r), echo: echo}
}

func (l *Lines) next(label string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.echo != nil {
		fmt.Fprintf(l.echo, "%s: ", label)
	}
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	line := strings.TrimRight(l.scanner.Text(), "\r")
	if l.echo != nil {
		fmt.Fprintln(l.echo)
	}
	return line, nil
}

func (l *Lines) Input(label, def string, validate func(string) error) (string, error) {
	value, err := l.next(label)
	if err != nil {
		return "", err
	}
	if value == "" {
		value = def
	}
	if validate != nil {
		if err := validate(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (l *Lines) Secret(label string) (string, error) {
	return l.next(label)
}

func (l *Lines) Confirm(label string) (bool, error) {
	value, err := l.next(label + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select accepts a 1-based index or the item text.
func (l *Lines) Select(label string, items []string) (int, error) {
	value, err := l.next(label)
	if err != nil {
		return -1, err
	}
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(items) {
		return n - 1, nil
	}
	for i, item := range items {
		if strings.EqualFold(item, value) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("invalid choice %q", value)
}
