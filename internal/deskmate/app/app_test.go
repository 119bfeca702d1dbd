package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskmate-ai/deskmate/internal/deskmate/app"
	"github.com/deskmate-ai/deskmate/internal/deskmate/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "test.db")
	cfg.Users.Path = filepath.Join(dir, "users.json")
	cfg.Log.Level = "error"
	return cfg
}

func newApp(t *testing.T, input string) (*app.App, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	a, err := app.New(testConfig(t), strings.NewReader(input), out)
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, out
}

func TestRunProcessesBuiltins(t *testing.T) {
	a, out := newApp(t, "actions\nundo\nexit\n")

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "apps:open_app") {
		t.Error("actions builtin did not list apps:open_app")
	}
	if !strings.Contains(output, "nothing to undo") {
		t.Error("undo builtin did not report an empty stack")
	}
}

// Learn flows read prompt answers from the same piped input as the command
// loop; the loop must not buffer ahead of the prompter.
func TestRunLearnFlowReadsPromptAnswersFromPipedInput(t *testing.T) {
	// Line 1: unknown command. Line 2: decline the low-confidence suggestion.
	// Lines 3-4: pick apps / function #2 (list_running_apps, sorted). Line 5:
	// quit the loop.
	a, out := newApp(t, "frobnicate the widget\nn\napps\n2\nexit\n")

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "Select a module") {
		t.Fatal("manual mapping flow never started")
	}
	if !strings.Contains(output, "ok:") {
		t.Errorf("learned command did not execute, output:\n%s", output)
	}
}
