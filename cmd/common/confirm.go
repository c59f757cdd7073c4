package common

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Confirm asks on stdin before a destructive action. force, or a stdin that
// is not a terminal, skips the prompt.
func Confirm(out io.Writer, prompt string, force bool) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	return confirm(os.Stdin, out, prompt, force || !interactive)
}

func confirm(in io.Reader, out io.Writer, prompt string, skip bool) error {
	if skip {
		return nil
	}

	if _, err := fmt.Fprintf(out, "%s (y/N): ", prompt); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read user input: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return nil
	default:
		return ErrCancelled
	}
}
