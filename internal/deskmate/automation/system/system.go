// Package system provides host-level automation functions. shutdown and
// restart are destructive and expected to sit behind the permission gate.
package system

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// Module returns the system module spec. mute is reversible via unmute.
func Module() (*automation.ModuleSpec, error) {
	return &automation.ModuleSpec{
		Name: "system",
		Functions: []automation.FunctionSpec{
			{Name: "lock_screen", Call: LockScreen},
			{Name: "mute", Call: Mute, Reversible: true, Inverse: "system:unmute"},
			{Name: "unmute", Call: Unmute},
			{Name: "adjust_volume", Call: AdjustVolume},
			{Name: "shutdown", Call: Shutdown},
			{Name: "restart", Call: Restart},
		},
	}, nil
}

func run(ctx context.Context, name string, args ...string) error {
	if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// LockScreen locks the current session.
func LockScreen(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	var err error
	switch runtime.GOOS {
	case "darwin":
		err = run(ctx, "pmset", "displaysleepnow")
	case "windows":
		err = run(ctx, "rundll32", "user32.dll,LockWorkStation")
	default:
		err = run(ctx, "loginctl", "lock-session")
	}
	if err != nil {
		return nil, err
	}
	return automation.Success("screen locked"), nil
}

func setMute(ctx context.Context, muted bool) error {
	switch runtime.GOOS {
	case "darwin":
		return run(ctx, "osascript", "-e", fmt.Sprintf("set volume output muted %t", muted))
	case "windows":
		// No stock CLI toggle on Windows; rely on the keyboard event helper.
		return run(ctx, "powershell", "-c", "(New-Object -ComObject WScript.Shell).SendKeys([char]173)")
	default:
		state := "mute"
		if !muted {
			state = "unmute"
		}
		return run(ctx, "amixer", "-q", "set", "Master", state)
	}
}

// Mute silences the master audio output.
func Mute(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if err := setMute(ctx, true); err != nil {
		return nil, err
	}
	return automation.Success("audio muted"), nil
}

// Unmute restores the master audio output.
func Unmute(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if err := setMute(ctx, false); err != nil {
		return nil, err
	}
	return automation.Success("audio unmuted"), nil
}

// AdjustVolume sets the master volume to the percentage in the first argument.
func AdjustVolume(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if len(args) == 0 {
		return automation.Failure("no volume level given"), nil
	}
	level, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"))
	if err != nil || level < 0 || level > 100 {
		return automation.Failure("volume must be a percentage between 0 and 100"), nil
	}

	switch runtime.GOOS {
	case "darwin":
		// macOS output volume is 0-7 scaled.
		err = run(ctx, "osascript", "-e", fmt.Sprintf("set volume output volume %d", level))
	case "windows":
		return automation.Failure("volume adjustment is not supported on windows"), nil
	default:
		err = run(ctx, "amixer", "-q", "set", "Master", fmt.Sprintf("%d%%", level))
	}
	if err != nil {
		return nil, err
	}
	return automation.Success("volume set to %d%%", level), nil
}

// Shutdown powers off the machine.
func Shutdown(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = run(ctx, "shutdown", "/s", "/t", "0")
	default:
		err = run(ctx, "shutdown", "-h", "now")
	}
	if err != nil {
		return nil, err
	}
	return automation.Success("shutting down"), nil
}

// Restart reboots the machine.
func Restart(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = run(ctx, "shutdown", "/r", "/t", "0")
	default:
		err = run(ctx, "shutdown", "-r", "now")
	}
	if err != nil {
		return nil, err
	}
	return automation.Success("restarting"), nil
}
