// Package automation defines the shared contract between the capability
// catalog and the concrete automation modules (apps, browser, media, system,
// email). Each module exposes a ModuleSpec describing its callable functions;
// the catalog re-enumerates those specs on every discovery pass.
package automation

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Status values carried by Result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the structured outcome of an automation function call.
type Result struct {
	Status  string
	Message string
	Extra   map[string]any
}

// Success builds a success Result with a formatted message.
func Success(format string, args ...any) *Result {
	return &Result{Status: StatusSuccess, Message: fmt.Sprintf(format, args...)}
}

// Failure builds an error Result with a formatted message.
func Failure(format string, args ...any) *Result {
	return &Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Func is the signature every automation function implements. Positional
// arguments are ordered; keyword arguments are key-unique by construction.
type Func func(ctx context.Context, args []string, kwargs map[string]string) (*Result, error)

// FunctionSpec describes one callable exposed by a module. Inverse is the
// action key ("module:function") that undoes this function, set only when
// Reversible is true.
type FunctionSpec struct {
	Name       string
	Call       Func
	Reversible bool
	Inverse    string
}

// ModuleSpec is the unit of registration with the catalog.
type ModuleSpec struct {
	Name      string
	Functions []FunctionSpec
}

// OpenURL opens url in the default browser for the current platform.
func OpenURL(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open url %q: %w", url, err)
	}
	// Release the child; the browser outlives the command.
	go cmd.Wait()
	return nil
}
