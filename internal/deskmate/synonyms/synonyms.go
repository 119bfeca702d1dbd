// Package synonyms loads the static synonym configuration and scores input
// text against it with token-set-ratio lexical matching.
//
// The configuration is a flat YAML map from action key ("module:function")
// to a list of natural-language aliases. It is validated against an embedded
// JSON schema before use so a malformed file fails loudly at startup instead
// of silently matching nothing.
package synonyms

import (
	"fmt"
	"os"
	"sort"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// configSchema constrains the synonym file shape: action keys map to alias
// lists.
const configSchema = `{
	"type": "object",
	"patternProperties": {
		"^[a-z][a-z0-9_]*:[a-z][a-z0-9_]*$": {
			"type": "array",
			"items": {"type": "string", "minLength": 1}
		}
	},
	"additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("commands.schema.json", configSchema)

// Index holds the canonical action key → aliases mapping.
type Index struct {
	entries map[string][]string
}

// Empty returns an Index with no entries. Matching against it always yields
// no suggestion, which is the documented degraded mode.
func Empty() *Index {
	return &Index{entries: map[string][]string{}}
}

// Parse decodes and validates a synonym configuration document.
func Parse(data []byte) (*Index, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("synonyms parse: %w", err)
	}
	if doc == nil {
		return Empty(), nil
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("synonyms validate: %w", err)
	}

	var entries map[string][]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("synonyms parse: %w", err)
	}
	return &Index{entries: entries}, nil
}

// Load reads and parses the synonym configuration at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("synonyms load: %w", err)
	}
	return Parse(data)
}

// Len returns the number of synonym entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// ActionKeys returns the sorted canonical action keys.
func (ix *Index) ActionKeys() []string {
	if ix == nil {
		return nil
	}
	keys := make([]string, 0, len(ix.entries))
	for key := range ix.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Aliases returns the alias list for an action key.
func (ix *Index) Aliases(actionKey string) []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.entries[actionKey]...)
}

// BestMatch scores text against every entry's canonical key and aliases and
// returns the best-scoring action key with its confidence in [0,1]. The
// per-entry score is the maximum over the key and all aliases; ties keep the
// first-best entry. An empty index returns ("", 0).
func (ix *Index) BestMatch(text string) (string, float64) {
	if ix == nil || len(ix.entries) == 0 || text == "" {
		return "", 0
	}

	bestKey := ""
	bestScore := 0
	// Iterate keys in sorted order so first-best-wins is deterministic.
	for _, key := range ix.ActionKeys() {
		score := fuzzy.TokenSetRatio(text, key)
		for _, alias := range ix.entries[key] {
			if s := fuzzy.TokenSetRatio(text, alias); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}

	if bestKey == "" {
		return "", 0
	}
	return bestKey, float64(bestScore) / 100.0
}
