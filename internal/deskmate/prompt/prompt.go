// Package prompt defines the synchronous prompt port through which the
// resolver and learner ask a human for input. Keeping interaction behind an
// interface keeps the resolution and learning logic testable without real
// terminal I/O.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter is the interactive surface injected into the resolver and
// learner. Every call blocks until the human answers; the engine imposes no
// timeout of its own.
type Prompter interface {
	// Confirm asks whether the suggested action key is what the user meant.
	Confirm(actionKey string) bool

	// SelectModule asks the user to pick one of the given module names.
	// ok is false when no valid choice was made.
	SelectModule(modules []string) (string, bool)

	// SelectFunction asks the user to pick one of the module's functions
	// by index. ok is false when no valid choice was made.
	SelectFunction(module string, functions []string) (string, bool)

	// ManualMap is the raw fallback: the user types a module and function
	// name directly. ok is false when the flow was abandoned.
	ManualMap(text string, availableActions []string) (module, function string, ok bool)
}

// Stdio is a Prompter over a line-oriented reader/writer pair, normally
// stdin/stdout.
type Stdio struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewStdio creates a Stdio prompter.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	return NewStdioScanner(bufio.NewScanner(in), out)
}

// NewStdioScanner creates a Stdio prompter over an existing scanner. Callers
// that interleave their own line reads with prompts must share one scanner;
// two scanners over the same reader each buffer ahead and steal input from
// the other.
func NewStdioScanner(scanner *bufio.Scanner, out io.Writer) *Stdio {
	return &Stdio{scanner: scanner, out: out}
}

func (s *Stdio) readLine() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

// Confirm implements Prompter.
func (s *Stdio) Confirm(actionKey string) bool {
	fmt.Fprintf(s.out, "Did you mean '%s'? [y/N]: ", actionKey)
	answer, ok := s.readLine()
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// SelectModule implements Prompter. Invalid input is re-prompted up to three
// times before giving up.
func (s *Stdio) SelectModule(modules []string) (string, bool) {
	if len(modules) == 0 {
		return "", false
	}
	fmt.Fprintf(s.out, "Select a module: %s\n", strings.Join(modules, ", "))

	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprint(s.out, "Module> ")
		choice, ok := s.readLine()
		if !ok {
			return "", false
		}
		choice = strings.ToLower(choice)
		for _, m := range modules {
			if m == choice {
				return m, true
			}
		}
		fmt.Fprintf(s.out, "Invalid module: %s\n", choice)
	}
	return "", false
}

// SelectFunction implements Prompter.
func (s *Stdio) SelectFunction(module string, functions []string) (string, bool) {
	if len(functions) == 0 {
		return "", false
	}
	fmt.Fprintf(s.out, "Available functions in %s:\n", module)
	for i, fn := range functions {
		fmt.Fprintf(s.out, "  [%d] %s\n", i+1, fn)
	}

	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprint(s.out, "Enter function number: ")
		raw, ok := s.readLine()
		if !ok {
			return "", false
		}
		idx, err := strconv.Atoi(raw)
		if err == nil && idx >= 1 && idx <= len(functions) {
			return functions[idx-1], true
		}
		fmt.Fprintln(s.out, "Invalid selection. Please try again.")
	}
	return "", false
}

// ManualMap implements Prompter.
func (s *Stdio) ManualMap(text string, availableActions []string) (string, string, bool) {
	fmt.Fprintf(s.out, "Unknown command: %q. Please map it to an existing action.\n", text)
	if len(availableActions) > 0 {
		fmt.Fprintln(s.out, "Available actions:")
		for _, action := range availableActions {
			fmt.Fprintf(s.out, "  - %s\n", action)
		}
	}

	fmt.Fprint(s.out, "Enter module name (e.g. 'browser'): ")
	module, ok := s.readLine()
	if !ok {
		return "", "", false
	}
	fmt.Fprint(s.out, "Enter function name (e.g. 'open_url'): ")
	function, ok := s.readLine()
	if !ok {
		return "", "", false
	}
	return module, function, module != "" && function != ""
}
