// Package sortio runs the local sorting modes: interactive keyboard input,
// file to screen or file, and in-place file sorting.
package sortio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/value"
)

const (
	quitCommand = "q"
	separator   = "------------------------------"
)

var ErrEmptyFile = errors.New("file is empty")

// ReadFile parses the whitespace separated tokens in path.
//
// Parameters:
//   - path: File to read, UTF-8 text
//
// Returns:
//   - The parsed values, or ErrEmptyFile when the file holds only whitespace
//   - An error describing a missing or unreadable file
func ReadFile(path string) ([]value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("file '%s' not found: %w", path, err)
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("permission denied reading '%s': %w", path, err)
		default:
			return nil, fmt.Errorf("reading file '%s': %w", path, err)
		}
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("file '%s': %w", path, ErrEmptyFile)
	}

	return value.Parse(content), nil
}

// WriteFile writes values on one line, or "(empty)" when there are none.
func WriteFile(path string, values []value.Value) error {
	line := "(empty)"
	if len(values) > 0 {
		line = value.Join(values)
	}

	if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("permission denied writing to '%s': %w", path, err)
		}
		return fmt.Errorf("writing to file '%s': %w", path, err)
	}

	return nil
}

// FormatLine renders "label: v1 v2 ..." or "label: (empty)".
func FormatLine(label string, values []value.Value) string {
	if len(values) == 0 {
		return label + ": (empty)"
	}
	return label + ": " + value.Join(values)
}

// Runner drives the local modes against the given streams.
type Runner struct {
	In      io.Reader
	Out     io.Writer
	Reverse bool
	Logger  logger.Logger
}

// NewRunner returns a Runner reading from in and writing to out.
func NewRunner(in io.Reader, out io.Writer, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{In: in, Out: out, Logger: log}
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}

func (r *Runner) println(line string) {
	_, _ = fmt.Fprintln(r.Out, line)
}

// sort orders values, keeping the input order when they cannot be compared.
func (r *Runner) sort(values []value.Value) []value.Value {
	sorted, err := value.Sort(values, r.Reverse)
	if err != nil {
		r.Logger.Warn("unable to sort mixed incompatible types", logger.Err(err))
		r.println("Warning: Unable to sort mixed incompatible types")
		return values
	}
	return sorted
}

// Keyboard prompts for lines of input and prints each sorted, until the
// user enters q, an empty line, or the input ends.
func (r *Runner) Keyboard() error {
	r.println("=== Keyboard Input Mode ===")

	scanner := bufio.NewScanner(r.In)
	for {
		r.println("Enter items separated by spaces (or 'q' to quit):")
		r.printf(">>> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading keyboard input: %w", err)
			}
			r.println("\nInput cancelled.")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, quitCommand) {
			return nil
		}

		values := value.Parse(line)
		if len(values) == 0 {
			return nil
		}

		r.println(FormatLine("Original", values))
		r.println(FormatLine("Sorted", r.sort(values)))
		r.println(separator)
	}
}

// File sorts the contents of input and prints the result. When output is
// not empty the sorted values are also written there.
func (r *Runner) File(input, output string) error {
	r.printf("=== File Mode: %s ===\n", input)

	values, ok, err := r.load(input)
	if err != nil || !ok {
		return err
	}

	r.printf("Read %d items from '%s'\n", len(values), input)
	r.println(FormatLine("Original data", values))

	sorted := r.sort(values)
	if output != "" {
		if err := WriteFile(output, sorted); err != nil {
			return err
		}
		r.printf("Output written to '%s'\n", output)
	}

	r.println(FormatLine("Sorted data", sorted))
	return nil
}

// FileInPlace sorts the contents of path and writes them back to it.
func (r *Runner) FileInPlace(path string) error {
	r.printf("=== In-place File Mode: %s ===\n", path)

	values, ok, err := r.load(path)
	if err != nil || !ok {
		return err
	}

	r.printf("Original content (%d items):\n", len(values))
	r.println(FormatLine("Before", values))

	sorted := r.sort(values)
	if err := WriteFile(path, sorted); err != nil {
		return err
	}

	r.printf("Output written to '%s'\n", path)
	r.println(FormatLine("After", sorted))
	r.printf("File '%s' has been sorted in-place.\n", path)
	return nil
}

// load reads path, reporting an empty file as a warning instead of an
// error. ok is false when there is nothing to sort.
func (r *Runner) load(path string) (values []value.Value, ok bool, err error) {
	values, err = ReadFile(path)
	if errors.Is(err, ErrEmptyFile) {
		r.printf("Warning: File '%s' is empty.\n", path)
		r.println("No data to sort.")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(values) == 0 {
		r.println("No data to sort.")
		return nil, false, nil
	}

	return values, true, nil
}
