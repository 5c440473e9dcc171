// Package prompt asks the user for input on a line-oriented terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when input is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("input required but stdin is not a terminal")

// Prompter reads answers from in and writes questions to out
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// New creates a prompter. Interactivity is detected from in when it is a file;
// any other reader is treated as interactive so scripted input works.
func New(in io.Reader, out io.Writer) *Prompter {
	interactive := true
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Interactive reports whether questions can be asked
func (p *Prompter) Interactive() bool {
	return p.interactive
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", fmt.Errorf("no input: %w", io.ErrUnexpectedEOF)
		}
	}
	return strings.TrimSpace(line), nil
}

// Input asks question and returns the trimmed answer, which may be empty
func (p *Prompter) Input(question string) (string, error) {
	if !p.interactive {
		return "", ErrNotInteractive
	}
	fmt.Fprintf(p.out, "%s: ", question)
	return p.readLine()
}

// Select lists options numbered from 1 and returns the chosen index. It asks
// again on invalid answers.
func (p *Prompter) Select(question string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("nothing to select from")
	}
	if !p.interactive {
		return -1, ErrNotInteractive
	}

	fmt.Fprintln(p.out, question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprintf(p.out, "Enter a number [1-%d]: ", len(options))
		answer, err := p.readLine()
		if err != nil {
			return -1, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "invalid choice %q\n", answer)
	}
}
