package resolver_test

import (
	"testing"

	"github.com/deskmate-ai/deskmate/internal/deskmate/resolver"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
)

func TestEnrichArgumentExtraction(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		module   string
		function string
		wantArgs []string
	}{
		{"open app name", "open chrome", "apps", "open_app", []string{"chrome"}},
		{"open multi word app", "launch visual studio code", "apps", "open_app", []string{"visual studio code"}},
		{"close app name", "close spotify", "apps", "close_app", []string{"spotify"}},
		{"bare verb no app", "open", "apps", "open_app", nil},
		{"explicit url", "open https://example.com/page", "browser", "open_url", []string{"https://example.com/page"}},
		{"www url", "go to www.example.com", "browser", "open_url", []string{"www.example.com"}},
		{"bare domain", "open example.org now", "browser", "open_url", []string{"example.org"}},
		{"synthesized url", "open github", "browser", "open_url", []string{"https://github.com"}},
		{"search strips verb", "search python tutorials", "browser", "search_google", []string{"python tutorials"}},
		{"search without verb", "best go books", "browser", "search_google", []string{"best go books"}},
		{"play strips verb", "play despacito", "media", "play_video", []string{"despacito"}},
		{"search and play", "play lofi beats", "media", "search_and_play", []string{"lofi beats"}},
		{"no extraction rule", "lock my screen", "system", "lock_screen", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &store.Mapping{CommandText: tt.text, Module: tt.module, Function: tt.function}
			got := resolver.Enrich(tt.text, m)

			if len(got.Args) != len(tt.wantArgs) {
				t.Fatalf("Enrich(%q) args = %v, want %v", tt.text, got.Args, tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if got.Args[i] != tt.wantArgs[i] {
					t.Errorf("Enrich(%q) args[%d] = %q, want %q", tt.text, i, got.Args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestEnrichKeepsExplicitArgs(t *testing.T) {
	m := &store.Mapping{
		CommandText: "open chrome",
		Module:      "apps",
		Function:    "open_app",
		Args:        []string{"firefox"},
	}
	got := resolver.Enrich("open chrome", m)
	if len(got.Args) != 1 || got.Args[0] != "firefox" {
		t.Errorf("Enrich() args = %v, want explicit [firefox] untouched", got.Args)
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	m := &store.Mapping{
		CommandText: "play despacito",
		Module:      "media",
		Function:    "play_video",
		Kwargs:      map[string]string{"quality": "hd"},
	}
	got := resolver.Enrich("play despacito", m)

	if len(m.Args) != 0 {
		t.Errorf("input mapping args mutated: %v", m.Args)
	}
	got.Kwargs["quality"] = "sd"
	if m.Kwargs["quality"] != "hd" {
		t.Error("kwargs map is shared between input and enriched mapping")
	}
}
