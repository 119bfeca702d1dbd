package resolver_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/learner"
	"github.com/deskmate-ai/deskmate/internal/deskmate/resolver"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
	"github.com/deskmate-ai/deskmate/internal/deskmate/synonyms"
)

type fakeStore struct {
	mappings map[string]*store.Mapping
	listErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: map[string]*store.Mapping{}}
}

func (f *fakeStore) GetMapping(ctx context.Context, commandText string) (*store.Mapping, error) {
	m, ok := f.mappings[commandText]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) ListCommandTexts(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	texts := make([]string, 0, len(f.mappings))
	for text := range f.mappings {
		texts = append(texts, text)
	}
	sort.Strings(texts)
	return texts, nil
}

type fakeCatalog struct {
	known map[string]catalog.Descriptor
}

func (f *fakeCatalog) Resolve(actionKey string) (catalog.Descriptor, bool) {
	d, ok := f.known[actionKey]
	return d, ok
}

func catalogWith(keys ...string) *fakeCatalog {
	known := make(map[string]catalog.Descriptor, len(keys))
	for _, key := range keys {
		module, function, _ := catalog.SplitKey(key)
		known[key] = catalog.Descriptor{Module: module, Function: function}
	}
	return &fakeCatalog{known: known}
}

type fakePrompter struct {
	confirm   bool
	confirmed []string
}

func (f *fakePrompter) Confirm(actionKey string) bool {
	f.confirmed = append(f.confirmed, actionKey)
	return f.confirm
}

func (f *fakePrompter) SelectModule(modules []string) (string, bool) { return "", false }
func (f *fakePrompter) SelectFunction(module string, functions []string) (string, bool) {
	return "", false
}
func (f *fakePrompter) ManualMap(text string, availableActions []string) (string, string, bool) {
	return "", "", false
}

// fakeLearner persists a fixed mapping into the store under the learned text,
// mimicking the real learner's contract.
type fakeLearner struct {
	store   *fakeStore
	mapping *store.Mapping
	err     error
	calls   []string
}

func (f *fakeLearner) HandleUnknown(ctx context.Context, text string) (*learner.Result, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.mapping != nil {
		m := *f.mapping
		m.CommandText = text
		f.store.mappings[text] = &m
		return &learner.Result{Mapping: &m, Provenance: learner.ProvenanceManual}, nil
	}
	return nil, nil
}

func intentFixed(key string, confidence float64) resolver.IntentRecognizer {
	return func(text string) (string, float64, error) {
		return key, confidence, nil
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  open   chrome  ", "open chrome"},
		{"open chrome", "open chrome"},
		{"\tlock\nscreen\t", "lock screen"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := resolver.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveEmptyCommand(t *testing.T) {
	r := resolver.New(newFakeStore(), catalogWith(), synonyms.Empty(), nil, nil, nil, nil)

	_, err := r.Resolve(context.Background(), "   ")
	if !errors.Is(err, resolver.ErrResolutionFailed) {
		t.Errorf("Resolve(blank) error = %v, want ErrResolutionFailed", err)
	}
}

func TestResolveStoredMappingWinsOverIntent(t *testing.T) {
	st := newFakeStore()
	st.mappings["open chrome"] = &store.Mapping{
		CommandText: "open chrome",
		Module:      "apps",
		Function:    "open_app",
		Args:        []string{"chromium"},
	}
	// The recognizer would send this elsewhere; the stored row must win.
	r := resolver.New(st, catalogWith("browser:open_url"), synonyms.Empty(),
		intentFixed("browser:open_url", 1.0), nil, nil, nil)

	m, err := r.Resolve(context.Background(), "  open   chrome ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.ActionKey() != "apps:open_app" {
		t.Errorf("ActionKey() = %q, want apps:open_app", m.ActionKey())
	}
	if len(m.Args) != 1 || m.Args[0] != "chromium" {
		t.Errorf("Args = %v, want stored [chromium]", m.Args)
	}
}

func TestResolveAutoAcceptAtThreshold(t *testing.T) {
	r := resolver.New(newFakeStore(), catalogWith("apps:open_app"), synonyms.Empty(),
		intentFixed("apps:open_app", 0.8), nil, nil, nil)

	m, err := r.Resolve(context.Background(), "open chrome")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.ActionKey() != "apps:open_app" {
		t.Errorf("ActionKey() = %q, want apps:open_app", m.ActionKey())
	}
	if len(m.Args) != 1 || m.Args[0] != "chrome" {
		t.Errorf("Args = %v, want [chrome]", m.Args)
	}
}

func TestResolveBelowThresholdNotAutoAccepted(t *testing.T) {
	st := newFakeStore()
	p := &fakePrompter{confirm: false}
	learn := &fakeLearner{
		store:   st,
		mapping: &store.Mapping{Module: "apps", Function: "open_app", Args: []string{"chrome"}},
	}
	r := resolver.New(st, catalogWith("apps:open_app"), synonyms.Empty(),
		intentFixed("apps:open_app", 0.79), p, learn, nil)

	m, err := r.Resolve(context.Background(), "open chrome")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(learn.calls) != 1 {
		t.Fatalf("learner called %d times, want 1", len(learn.calls))
	}
	if len(p.confirmed) != 1 || p.confirmed[0] != "apps:open_app" {
		t.Errorf("confirm prompts = %v, want one for apps:open_app", p.confirmed)
	}
	if m.ActionKey() != "apps:open_app" {
		t.Errorf("ActionKey() = %q, want apps:open_app", m.ActionKey())
	}
}

func TestResolveConfirmedSuggestion(t *testing.T) {
	p := &fakePrompter{confirm: true}
	r := resolver.New(newFakeStore(), catalogWith("system:lock_screen"), synonyms.Empty(),
		intentFixed("system:lock_screen", 0.5), p, nil, nil)

	m, err := r.Resolve(context.Background(), "lock it down")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.ActionKey() != "system:lock_screen" {
		t.Errorf("ActionKey() = %q, want system:lock_screen", m.ActionKey())
	}
	if len(p.confirmed) != 1 {
		t.Errorf("confirm prompts = %v, want exactly one", p.confirmed)
	}
}

func TestResolveReusesSimilarStoredCommand(t *testing.T) {
	st := newFakeStore()
	st.mappings["please lock my computer"] = &store.Mapping{
		CommandText: "please lock my computer",
		Module:      "system",
		Function:    "lock_screen",
		Args:        []string{"fast"},
	}
	r := resolver.New(st, catalogWith("system:lock_screen"), synonyms.Empty(), nil, nil, nil, nil)

	m, err := r.Resolve(context.Background(), "lock my computer please")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.ActionKey() != "system:lock_screen" {
		t.Errorf("ActionKey() = %q, want system:lock_screen", m.ActionKey())
	}
	// Reused mappings come back exactly as stored.
	if len(m.Args) != 1 || m.Args[0] != "fast" {
		t.Errorf("Args = %v, want stored [fast]", m.Args)
	}
}

func TestResolveWithoutLearnerFails(t *testing.T) {
	r := resolver.New(newFakeStore(), catalogWith(), synonyms.Empty(), nil, &fakePrompter{}, nil, nil)

	_, err := r.Resolve(context.Background(), "do something novel")
	if !errors.Is(err, resolver.ErrResolutionFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolutionFailed", err)
	}
}

func TestResolveLearnerFailurePropagates(t *testing.T) {
	learnErr := &learner.ValidationError{Reason: "module must be a non-empty string"}
	learn := &fakeLearner{store: newFakeStore(), err: learnErr}
	r := resolver.New(newFakeStore(), catalogWith(), synonyms.Empty(), nil, &fakePrompter{}, learn, nil)

	_, err := r.Resolve(context.Background(), "do something novel")
	var verr *learner.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Resolve() error = %v, want wrapped ValidationError", err)
	}
}

func TestResolveFailsWhenLearnerPersistsNothing(t *testing.T) {
	learn := &fakeLearner{store: newFakeStore()}
	r := resolver.New(newFakeStore(), catalogWith(), synonyms.Empty(), nil, &fakePrompter{}, learn, nil)

	_, err := r.Resolve(context.Background(), "do something novel")
	if !errors.Is(err, resolver.ErrResolutionFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolutionFailed", err)
	}
}

func TestResolveSynonymMatchEndToEnd(t *testing.T) {
	index, err := synonyms.Parse([]byte("apps:open_app:\n  - open chrome\n  - launch chrome\n"))
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(newFakeStore(), catalogWith("apps:open_app"), index, nil, nil, nil, nil)

	m, err := r.Resolve(context.Background(), "open chrome")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.ActionKey() != "apps:open_app" {
		t.Errorf("ActionKey() = %q, want apps:open_app", m.ActionKey())
	}
	if len(m.Args) != 1 || m.Args[0] != "chrome" {
		t.Errorf("Args = %v, want [chrome]", m.Args)
	}
}
