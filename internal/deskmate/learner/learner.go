// Package learner handles commands the resolver could not confidently
// resolve. It drives a confirm/suggest/manual-select interaction through the
// injected prompt port and persists the outcome so the command resolves
// directly next time.
package learner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/prompt"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
	"github.com/deskmate-ai/deskmate/internal/deskmate/synonyms"
)

// SuggestionThreshold is the minimum synonym-match confidence for offering a
// suggestion. It sits below the resolver's auto-accept threshold because a
// human confirms the suggestion before anything is persisted.
const SuggestionThreshold = 0.7

// Provenance values recorded on a learn result.
const (
	ProvenanceAuto   = "auto"
	ProvenanceManual = "manual"
)

// ValidationError reports a malformed learned mapping.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid mapping: " + e.Reason
}

// MappingStore is the slice of the persistence layer the learner writes to.
type MappingStore interface {
	UpsertMapping(ctx context.Context, m *store.Mapping) error
}

// Catalog is the slice of the action catalog the learner consults.
type Catalog interface {
	Resolve(actionKey string) (catalog.Descriptor, bool)
	ListActionKeys() []string
	ModuleFunctions(module string) []string
}

// Result is the outcome of a successful learn.
type Result struct {
	Mapping    *store.Mapping
	Provenance string
}

// Learner learns new command-to-action mappings.
type Learner struct {
	synonyms *synonyms.Index
	catalog  Catalog
	store    MappingStore
	prompter prompt.Prompter
	logger   *slog.Logger
}

// New creates a Learner.
func New(index *synonyms.Index, cat Catalog, st MappingStore, p prompt.Prompter, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{synonyms: index, catalog: cat, store: st, prompter: p, logger: logger}
}

// HandleUnknown learns a mapping for text and persists it keyed by the
// original, non-normalized text. Exactly one mapping row is written per
// call; re-learning the same text overwrites the prior row. A storage
// failure is fatal to the call; every other failure mode degrades to an
// empty mapping that is rejected by validation.
func (l *Learner) HandleUnknown(ctx context.Context, text string) (*Result, error) {
	l.logger.Info("learning mapping for unknown command", "command", text)

	provenance := ProvenanceManual
	var mapping *store.Mapping

	if key, confidence := l.synonyms.BestMatch(text); key != "" && confidence >= SuggestionThreshold {
		l.logger.Debug("suggested action", "action", key, "confidence", confidence)
		if l.prompter.Confirm(key) {
			if desc, ok := l.catalog.Resolve(key); ok {
				mapping = &store.Mapping{
					CommandText: text,
					Module:      desc.Module,
					Function:    desc.Function,
					Args:        []string{},
					Kwargs:      map[string]string{},
				}
				provenance = ProvenanceAuto
			} else {
				l.logger.Debug("catalog has no entry for suggestion, falling back to manual map", "action", key)
			}
		} else {
			l.logger.Debug("suggestion declined", "action", key)
		}
	}

	if mapping == nil {
		mapping = l.manualMap(text)
	}

	if err := Validate(mapping); err != nil {
		return nil, err
	}

	if err := l.store.UpsertMapping(ctx, mapping); err != nil {
		return nil, fmt.Errorf("failed to persist learned mapping: %w", err)
	}

	l.logger.Info("saved mapping", "command", text, "action", mapping.ActionKey(), "provenance", provenance)
	return &Result{Mapping: mapping, Provenance: provenance}, nil
}

// manualMap runs the interactive selection flow: pick a module from the
// available action keys, then a function from that module by index. When
// either step yields nothing it degrades to the raw module/function prompt,
// and finally to an empty mapping that fails shape validation.
func (l *Learner) manualMap(text string) *store.Mapping {
	actions := l.availableActions()

	if module, ok := l.prompter.SelectModule(moduleNames(actions)); ok {
		if fn, ok := l.prompter.SelectFunction(module, l.catalog.ModuleFunctions(module)); ok {
			return &store.Mapping{
				CommandText: text,
				Module:      module,
				Function:    fn,
				Args:        []string{},
				Kwargs:      map[string]string{},
			}
		}
	}

	if module, function, ok := l.prompter.ManualMap(text, actions); ok {
		return &store.Mapping{
			CommandText: text,
			Module:      strings.TrimSpace(module),
			Function:    strings.TrimSpace(function),
			Args:        []string{},
			Kwargs:      map[string]string{},
		}
	}

	return &store.Mapping{CommandText: text, Args: []string{}, Kwargs: map[string]string{}}
}

// availableActions returns the union of catalog and synonym-index action
// keys, sorted and de-duplicated.
func (l *Learner) availableActions() []string {
	seen := make(map[string]struct{})
	for _, key := range l.catalog.ListActionKeys() {
		seen[key] = struct{}{}
	}
	for _, key := range l.synonyms.ActionKeys() {
		seen[key] = struct{}{}
	}

	actions := make([]string, 0, len(seen))
	for key := range seen {
		actions = append(actions, key)
	}
	sort.Strings(actions)
	return actions
}

// moduleNames extracts the distinct module names from a list of action keys.
func moduleNames(actions []string) []string {
	seen := make(map[string]struct{})
	for _, action := range actions {
		if module, _, ok := catalog.SplitKey(action); ok {
			seen[module] = struct{}{}
		}
	}

	modules := make([]string, 0, len(seen))
	for module := range seen {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// Validate checks mapping shape: module and function must be non-empty and
// the function name must not carry the private marker. Argument containers
// are well-formed by type ([]string is ordered, map keys are unique).
func Validate(m *store.Mapping) error {
	if m == nil {
		return &ValidationError{Reason: "mapping is nil"}
	}
	if strings.TrimSpace(m.Module) == "" {
		return &ValidationError{Reason: "module must be a non-empty string"}
	}
	if strings.TrimSpace(m.Function) == "" {
		return &ValidationError{Reason: "function must be a non-empty string"}
	}
	if strings.HasPrefix(m.Function, "_") {
		return &ValidationError{Reason: "function name is private"}
	}
	return nil
}
