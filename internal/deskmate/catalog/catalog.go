// Package catalog maintains the registry of callable automation actions.
//
// Automation modules register a Provider once at startup; every discovery
// pass re-invokes the providers so the snapshot stays consistent with what
// the modules currently expose. A failing provider is skipped and logged,
// never fatal: with no working providers the catalog is simply empty.
package catalog

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// privateMarker prefixes function names reserved for module internals.
// Functions carrying it are never registered as actions.
const privateMarker = "_"

// Descriptor is the resolved form of an action key.
type Descriptor struct {
	Module     string
	Function   string
	Call       automation.Func
	Reversible bool
	Inverse    string
}

// ActionKey returns the "<module>:<function>" identity of the descriptor.
func (d Descriptor) ActionKey() string {
	return Key(d.Module, d.Function)
}

// Key builds an action key from a module and function name.
func Key(module, function string) string {
	return module + ":" + function
}

// SplitKey splits an action key into its module and function parts.
// ok is false when the key does not contain the separator.
func SplitKey(key string) (module, function string, ok bool) {
	module, function, ok = strings.Cut(key, ":")
	return module, function, ok && module != "" && function != ""
}

// Provider yields a module spec on each discovery pass.
type Provider func() (*automation.ModuleSpec, error)

// Catalog discovers and resolves automation actions.
type Catalog struct {
	providers []Provider
	logger    *slog.Logger
}

// New creates an empty Catalog.
func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{logger: logger}
}

// RegisterProvider adds a module provider. Registration order is preserved;
// later providers win on key collisions, matching the last-import-wins
// behavior of module scanning.
func (c *Catalog) RegisterProvider(p Provider) {
	c.providers = append(c.providers, p)
}

// Discover re-enumerates all providers and returns a fresh snapshot keyed by
// action key. Invalid entries (empty names, private-marker functions) are
// dropped with a debug log.
func (c *Catalog) Discover() map[string]Descriptor {
	snapshot := make(map[string]Descriptor)

	for _, provider := range c.providers {
		spec, err := provider()
		if err != nil {
			c.logger.Warn("skipping automation module", "error", err)
			continue
		}
		if spec == nil || spec.Name == "" {
			c.logger.Debug("skipping automation module with empty spec")
			continue
		}

		for _, fn := range spec.Functions {
			if fn.Name == "" || strings.HasPrefix(fn.Name, privateMarker) || fn.Call == nil {
				c.logger.Debug("skipping function", "module", spec.Name, "function", fn.Name)
				continue
			}
			snapshot[Key(spec.Name, fn.Name)] = Descriptor{
				Module:     spec.Name,
				Function:   fn.Name,
				Call:       fn.Call,
				Reversible: fn.Reversible,
				Inverse:    fn.Inverse,
			}
		}
	}

	return snapshot
}

// Resolve looks up a single action key against a fresh snapshot.
func (c *Catalog) Resolve(actionKey string) (Descriptor, bool) {
	d, ok := c.Discover()[actionKey]
	return d, ok
}

// ListActionKeys returns the sorted action keys of a fresh snapshot.
func (c *Catalog) ListActionKeys() []string {
	snapshot := c.Discover()
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ModuleFunctions returns the sorted function names exposed by one module,
// or nil when the module is unknown. Used by the learner's manual-mapping
// flow.
func (c *Catalog) ModuleFunctions(module string) []string {
	var functions []string
	for key := range c.Discover() {
		m, fn, ok := SplitKey(key)
		if ok && m == module {
			functions = append(functions, fn)
		}
	}
	sort.Strings(functions)
	return functions
}
