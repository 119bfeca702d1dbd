// Package resolver implements the multi-stage command resolution pipeline:
// exact stored mapping, intent/synonym matching with a confidence threshold,
// fuzzy reuse of previously stored commands, interactive confirmation, and
// finally delegation to the learner.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/learner"
	"github.com/deskmate-ai/deskmate/internal/deskmate/prompt"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
	"github.com/deskmate-ai/deskmate/internal/deskmate/synonyms"
)

// AutoAcceptThreshold is the minimum match confidence at which a synonym or
// intent match is accepted without asking the user.
const AutoAcceptThreshold = 0.8

// storedReuseThreshold is the minimum token-set-ratio score (0-100) at which
// a previously stored command text is reused for new input.
const storedReuseThreshold = 80

// ErrResolutionFailed is returned when no mapping can be produced for the
// input, including when the learner declines or is unavailable.
var ErrResolutionFailed = errors.New("unable to resolve command")

// MappingStore is the slice of the persistence layer the resolver reads.
type MappingStore interface {
	GetMapping(ctx context.Context, commandText string) (*store.Mapping, error)
	ListCommandTexts(ctx context.Context) ([]string, error)
}

// Catalog is the slice of the action catalog the resolver consults.
type Catalog interface {
	Resolve(actionKey string) (catalog.Descriptor, bool)
}

// Learner is the fallback for commands that cannot be resolved confidently.
type Learner interface {
	HandleUnknown(ctx context.Context, text string) (*learner.Result, error)
}

// IntentRecognizer is an optional injected recognizer consulted before
// lexical matching. It returns an action key and a confidence in [0,1].
type IntentRecognizer func(text string) (actionKey string, confidence float64, err error)

// Resolver resolves free-form text into a concrete mapping.
type Resolver struct {
	store    MappingStore
	catalog  Catalog
	synonyms *synonyms.Index
	intent   IntentRecognizer
	prompter prompt.Prompter
	learner  Learner
	logger   *slog.Logger
}

// New creates a Resolver. intent may be nil (lexical matching only);
// learn may be nil, in which case unresolvable commands fail outright.
func New(st MappingStore, cat Catalog, index *synonyms.Index, intent IntentRecognizer, p prompt.Prompter, learn Learner, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    st,
		catalog:  cat,
		synonyms: index,
		intent:   intent,
		prompter: p,
		learner:  learn,
		logger:   logger,
	}
}

// Normalize trims the text and collapses internal whitespace runs.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Resolve runs the pipeline. It is deterministic for a fixed store and
// catalog state, but may block on the prompt port or the learner.
func (r *Resolver) Resolve(ctx context.Context, text string) (*store.Mapping, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty command", ErrResolutionFailed)
	}

	// Stage 1: exact stored mapping.
	mapping, err := r.store.GetMapping(ctx, normalized)
	if err == nil {
		return Enrich(text, mapping), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("mapping lookup failed: %w", err)
	}

	// Stage 2: best action key via intent recognizer, then synonyms.
	actionKey, confidence := r.bestAction(normalized)

	// Stage 3: auto-accept above threshold when the catalog knows the key.
	if actionKey != "" && confidence >= AutoAcceptThreshold {
		if desc, ok := r.catalog.Resolve(actionKey); ok {
			return Enrich(text, mappingFor(normalized, desc)), nil
		}
		r.logger.Debug("matched action not in catalog", "action", actionKey)
	}

	// Stage 4: fuzzy reuse of a previously stored command text.
	if reused := r.reuseStored(ctx, normalized); reused != nil {
		return reused, nil
	}

	// Stage 5: confirm a below-threshold suggestion, else learn.
	if actionKey != "" && r.prompter != nil && r.prompter.Confirm(actionKey) {
		if desc, ok := r.catalog.Resolve(actionKey); ok {
			return Enrich(text, mappingFor(normalized, desc)), nil
		}
		r.logger.Debug("confirmed action not in catalog", "action", actionKey)
	}

	if r.learner == nil {
		return nil, fmt.Errorf("%w: no learner available", ErrResolutionFailed)
	}
	if _, err := r.learner.HandleUnknown(ctx, text); err != nil {
		return nil, fmt.Errorf("learning failed: %w", err)
	}

	// The learner persists under the original, non-normalized text.
	mapping, err = r.store.GetMapping(ctx, text)
	if errors.Is(err, store.ErrNotFound) {
		mapping, err = r.store.GetMapping(ctx, normalized)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: mapping absent after learning", ErrResolutionFailed)
	}
	if err != nil {
		return nil, fmt.Errorf("mapping lookup failed: %w", err)
	}

	return Enrich(text, mapping), nil
}

// bestAction returns the best-guess action key for the text and its
// confidence. The injected intent recognizer takes priority; lexical
// matching against the synonym index is the fallback. A missing or failing
// recognizer and an empty index both degrade to no suggestion.
func (r *Resolver) bestAction(text string) (string, float64) {
	if r.intent != nil {
		key, confidence, err := r.intent(text)
		if err != nil {
			r.logger.Debug("intent recognizer failed", "error", err)
		} else if key != "" {
			return key, confidence
		}
	}
	return r.synonyms.BestMatch(text)
}

// reuseStored fuzzy-matches text against all previously stored command texts
// and reuses the best mapping when it scores at or above the reuse
// threshold. The stored mapping is returned as-is: it was enriched when it
// was learned. Failures degrade to no reuse, never an error.
func (r *Resolver) reuseStored(ctx context.Context, text string) *store.Mapping {
	texts, err := r.store.ListCommandTexts(ctx)
	if err != nil {
		r.logger.Debug("failed to list stored commands", "error", err)
		return nil
	}

	bestText := ""
	bestScore := 0
	for _, candidate := range texts {
		if score := fuzzy.TokenSetRatio(text, candidate); score > bestScore {
			bestText, bestScore = candidate, score
		}
	}
	if bestText == "" || bestScore < storedReuseThreshold {
		return nil
	}

	mapping, err := r.store.GetMapping(ctx, bestText)
	if err != nil {
		r.logger.Debug("failed to load reused mapping", "command", bestText, "error", err)
		return nil
	}

	// Reuse on lexical similarity alone can misroute; keep it visible.
	r.logger.Warn("reusing stored mapping for similar command",
		"input", text, "stored", bestText, "score", bestScore)
	return mapping
}

// mappingFor builds a bare mapping for a catalog descriptor.
func mappingFor(commandText string, desc catalog.Descriptor) *store.Mapping {
	return &store.Mapping{
		CommandText: commandText,
		Module:      desc.Module,
		Function:    desc.Function,
		Args:        []string{},
		Kwargs:      map[string]string{},
	}
}
