package resolver

import (
	"regexp"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
)

// urlPattern matches URL-ish tokens: explicit schemes, www-prefixed hosts,
// or bare domain names.
var urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\w+\.\w{2,})`)

// Enrich synthesizes positional arguments for a mapping from the original
// (non-normalized) command text. Mappings that already carry explicit
// arguments are returned with those arguments untouched; actions without an
// extraction rule keep empty arguments.
func Enrich(originalText string, m *store.Mapping) *store.Mapping {
	enriched := &store.Mapping{
		CommandText: m.CommandText,
		Module:      m.Module,
		Function:    m.Function,
		Args:        append([]string(nil), m.Args...),
		Kwargs:      make(map[string]string, len(m.Kwargs)),
	}
	for k, v := range m.Kwargs {
		enriched.Kwargs[k] = v
	}

	if len(enriched.Args) > 0 {
		return enriched
	}

	text := strings.TrimSpace(originalText)
	lower := strings.ToLower(text)

	switch {
	case m.Module == "apps" && (m.Function == "open_app" || m.Function == "close_app"):
		// App name is everything after the leading verb.
		if rest := afterFirstWord(text); rest != "" {
			enriched.Args = []string{rest}
		}

	case m.Module == "browser" && m.Function == "open_url":
		if match := urlPattern.FindString(text); match != "" {
			enriched.Args = []string{match}
		} else if strings.HasPrefix(lower, "open ") {
			// "open something" -> https://something.com
			fields := strings.Fields(lower)
			if len(fields) >= 2 {
				enriched.Args = []string{"https://" + fields[1] + ".com"}
			}
		}

	case m.Module == "browser" && m.Function == "search_google":
		query := text
		if strings.HasPrefix(lower, "search ") {
			if rest := afterFirstWord(text); rest != "" {
				query = rest
			}
		}
		enriched.Args = []string{query}

	case m.Module == "media" && (m.Function == "play_video" || m.Function == "search_and_play"):
		query := text
		if rest := afterFirstWord(text); rest != "" {
			query = rest
		}
		enriched.Args = []string{query}
	}

	return enriched
}

// afterFirstWord returns the trimmed remainder of text after its first word,
// or "" when there is none.
func afterFirstWord(text string) string {
	_, rest, ok := strings.Cut(text, " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}
