package history_test

import (
	"context"
	"testing"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/history"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
)

type eventLog struct {
	kinds []string
	err   error
}

func (l *eventLog) AppendHistory(ctx context.Context, command, actionKey, kind string) error {
	if l.err != nil {
		return l.err
	}
	l.kinds = append(l.kinds, kind)
	return nil
}

// invoker counts calls per action key and can fail selected keys.
type invoker struct {
	known map[string]bool
	calls map[string]int
	fail  map[string]bool
}

func newInvoker(keys ...string) *invoker {
	inv := &invoker{known: map[string]bool{}, calls: map[string]int{}, fail: map[string]bool{}}
	for _, key := range keys {
		inv.known[key] = true
	}
	return inv
}

func (inv *invoker) Resolve(actionKey string) (catalog.Descriptor, bool) {
	if !inv.known[actionKey] {
		return catalog.Descriptor{}, false
	}
	module, function, _ := catalog.SplitKey(actionKey)
	return catalog.Descriptor{
		Module:   module,
		Function: function,
		Call: func(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
			inv.calls[actionKey]++
			if inv.fail[actionKey] {
				return automation.Failure("simulated failure"), nil
			}
			return automation.Success("done"), nil
		},
	}, true
}

func reversibleRecord() history.ActionRecord {
	return history.ActionRecord{
		Command:    "mute the sound",
		ActionKey:  "system:mute",
		Args:       []string{},
		Reversible: true,
		Inverse:    "system:unmute",
	}
}

func TestUndoEmptyStack(t *testing.T) {
	e := history.New(nil, newInvoker(), nil)

	res := e.UndoLast(context.Background())
	if res.Status != history.StatusError || res.Message != "nothing to undo" {
		t.Errorf("UndoLast() = %+v, want nothing-to-undo error", res)
	}
}

func TestRedoEmptyStack(t *testing.T) {
	e := history.New(nil, newInvoker(), nil)

	res := e.RedoLast(context.Background())
	if res.Status != history.StatusError || res.Message != "nothing to redo" {
		t.Errorf("RedoLast() = %+v, want nothing-to-redo error", res)
	}
}

func TestUndoInvokesInverse(t *testing.T) {
	inv := newInvoker("system:mute", "system:unmute")
	log := &eventLog{}
	e := history.New(log, inv, nil)

	e.Record(context.Background(), reversibleRecord())
	res := e.UndoLast(context.Background())

	if res.Status != history.StatusSuccess {
		t.Fatalf("UndoLast() = %+v, want success", res)
	}
	if res.FunctionExecuted != "system:unmute" {
		t.Errorf("FunctionExecuted = %q, want system:unmute", res.FunctionExecuted)
	}
	if inv.calls["system:unmute"] != 1 {
		t.Errorf("inverse invoked %d times, want 1", inv.calls["system:unmute"])
	}
	if e.ExecutedDepth() != 0 || e.UndoneDepth() != 1 {
		t.Errorf("stack depths = (%d, %d), want (0, 1)", e.ExecutedDepth(), e.UndoneDepth())
	}

	want := []string{store.EventExecute, store.EventUndo}
	if len(log.kinds) != 2 || log.kinds[0] != want[0] || log.kinds[1] != want[1] {
		t.Errorf("event kinds = %v, want %v", log.kinds, want)
	}
}

func TestUndoNonReversibleStillTransitions(t *testing.T) {
	inv := newInvoker("browser:open_url")
	log := &eventLog{}
	e := history.New(log, inv, nil)

	e.Record(context.Background(), history.ActionRecord{
		Command:   "open website",
		ActionKey: "browser:open_url",
	})
	res := e.UndoLast(context.Background())

	if res.Status != history.StatusError || res.Message != "action is not reversible" {
		t.Fatalf("UndoLast() = %+v, want not-reversible error", res)
	}
	// The record still moved so redo can replay it.
	if e.ExecutedDepth() != 0 || e.UndoneDepth() != 1 {
		t.Errorf("stack depths = (%d, %d), want (0, 1)", e.ExecutedDepth(), e.UndoneDepth())
	}
	if len(log.kinds) != 2 || log.kinds[1] != store.EventUndo {
		t.Errorf("event kinds = %v, want UNDO recorded", log.kinds)
	}

	redo := e.RedoLast(context.Background())
	if redo.Status != history.StatusSuccess {
		t.Fatalf("RedoLast() = %+v, want success", redo)
	}
	if inv.calls["browser:open_url"] != 1 {
		t.Errorf("redo invoked original %d times, want 1", inv.calls["browser:open_url"])
	}
}

func TestUndoMissingInverse(t *testing.T) {
	inv := newInvoker("system:mute") // unmute deliberately absent
	e := history.New(nil, inv, nil)

	e.Record(context.Background(), reversibleRecord())
	res := e.UndoLast(context.Background())

	if res.Status != history.StatusError {
		t.Fatalf("UndoLast() = %+v, want error", res)
	}
	if res.Message != "undo function not found: system:unmute" {
		t.Errorf("Message = %q", res.Message)
	}
	if e.UndoneDepth() != 1 {
		t.Errorf("UndoneDepth() = %d, want 1", e.UndoneDepth())
	}
}

func TestUndoSoftFailureKeepsTransition(t *testing.T) {
	inv := newInvoker("system:mute", "system:unmute")
	inv.fail["system:unmute"] = true
	e := history.New(nil, inv, nil)

	e.Record(context.Background(), reversibleRecord())
	res := e.UndoLast(context.Background())

	if res.Status != history.StatusError || res.Message != "simulated failure" {
		t.Fatalf("UndoLast() = %+v, want simulated failure", res)
	}
	if e.ExecutedDepth() != 0 || e.UndoneDepth() != 1 {
		t.Errorf("stack depths = (%d, %d), want (0, 1)", e.ExecutedDepth(), e.UndoneDepth())
	}
}

func TestRecordInvalidatesRedo(t *testing.T) {
	inv := newInvoker("system:mute", "system:unmute", "system:lock_screen")
	e := history.New(nil, inv, nil)
	ctx := context.Background()

	e.Record(ctx, reversibleRecord())
	if res := e.UndoLast(ctx); res.Status != history.StatusSuccess {
		t.Fatalf("UndoLast() = %+v", res)
	}
	if e.UndoneDepth() != 1 {
		t.Fatalf("UndoneDepth() = %d, want 1", e.UndoneDepth())
	}

	// A fresh execution clears the redo stack.
	e.Record(ctx, history.ActionRecord{Command: "lock", ActionKey: "system:lock_screen"})
	if e.UndoneDepth() != 0 {
		t.Errorf("UndoneDepth() = %d after new Record, want 0", e.UndoneDepth())
	}
	if res := e.RedoLast(ctx); res.Status != history.StatusError {
		t.Errorf("RedoLast() = %+v, want nothing-to-redo error", res)
	}
}

func TestRedoReexecutesOriginal(t *testing.T) {
	inv := newInvoker("system:mute", "system:unmute")
	log := &eventLog{}
	e := history.New(log, inv, nil)
	ctx := context.Background()

	e.Record(ctx, reversibleRecord())
	e.UndoLast(ctx)
	res := e.RedoLast(ctx)

	if res.Status != history.StatusSuccess || res.FunctionExecuted != "system:mute" {
		t.Fatalf("RedoLast() = %+v, want success re-invoking system:mute", res)
	}
	if inv.calls["system:mute"] != 1 {
		t.Errorf("original invoked %d times on redo, want 1", inv.calls["system:mute"])
	}
	if e.ExecutedDepth() != 1 || e.UndoneDepth() != 0 {
		t.Errorf("stack depths = (%d, %d), want (1, 0)", e.ExecutedDepth(), e.UndoneDepth())
	}

	want := []string{store.EventExecute, store.EventUndo, store.EventRedo}
	if len(log.kinds) != 3 {
		t.Fatalf("event kinds = %v, want %v", log.kinds, want)
	}
	for i := range want {
		if log.kinds[i] != want[i] {
			t.Errorf("event kinds[%d] = %q, want %q", i, log.kinds[i], want[i])
		}
	}
}

func TestEventLogFailureTolerated(t *testing.T) {
	inv := newInvoker("system:mute", "system:unmute")
	log := &eventLog{err: context.DeadlineExceeded}
	e := history.New(log, inv, nil)

	e.Record(context.Background(), reversibleRecord())
	res := e.UndoLast(context.Background())
	if res.Status != history.StatusSuccess {
		t.Errorf("UndoLast() = %+v, want success despite log failure", res)
	}
}
