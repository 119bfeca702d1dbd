// Package apps provides automation functions for launching, closing and
// listing desktop applications.
package apps

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// Module returns the apps module spec. open_app is reversible: undoing it
// closes the application it launched.
func Module() (*automation.ModuleSpec, error) {
	return &automation.ModuleSpec{
		Name: "apps",
		Functions: []automation.FunctionSpec{
			{Name: "open_app", Call: OpenApp, Reversible: true, Inverse: "apps:close_app"},
			{Name: "close_app", Call: CloseApp},
			{Name: "list_running_apps", Call: ListRunningApps},
		},
	}, nil
}

// launchCommand maps an application name to the platform launch invocation.
func launchCommand(ctx context.Context, name string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", "-a", name)
	case "windows":
		return exec.CommandContext(ctx, "cmd", "/c", "start", "", name)
	default:
		return exec.CommandContext(ctx, name)
	}
}

// OpenApp launches the application named by the first argument.
func OpenApp(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return automation.Failure("no application name given"), nil
	}
	name := strings.TrimSpace(args[0])

	cmd := launchCommand(ctx, name)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %q: %w", name, err)
	}
	go cmd.Wait()

	return automation.Success("opened %s", name), nil
}

// CloseApp terminates processes whose name matches the first argument
// (case-insensitive substring match, mirroring how users name apps).
func CloseApp(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return automation.Failure("no application name given"), nil
	}
	target := strings.ToLower(strings.TrimSpace(args[0]))

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	closed := 0
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(name), target) {
			continue
		}
		if err := p.TerminateWithContext(ctx); err != nil {
			continue
		}
		closed++
	}

	if closed == 0 {
		return automation.Failure("no running process matches %q", target), nil
	}
	return automation.Success("closed %d process(es) matching %s", closed, target), nil
}

// ListRunningApps returns the distinct names of running processes.
func ListRunningApps(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	seen := make(map[string]struct{}, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	res := automation.Success("%d running applications", len(names))
	res.Extra = map[string]any{"apps": names}
	return res, nil
}
