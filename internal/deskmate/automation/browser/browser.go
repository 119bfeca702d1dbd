// Package browser provides automation functions that hand off to the
// system's default web browser.
package browser

import (
	"context"
	"net/url"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// Module returns the browser module spec.
func Module() (*automation.ModuleSpec, error) {
	return &automation.ModuleSpec{
		Name: "browser",
		Functions: []automation.FunctionSpec{
			{Name: "open_url", Call: OpenURL},
			{Name: "search_google", Call: SearchGoogle},
			{Name: "get_wikipedia_summary", Call: WikipediaSummary},
		},
	}, nil
}

// normalizeURL ensures the target has a scheme so the OS opener treats it as
// a web address rather than a file path.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// OpenURL opens the URL given as the first argument.
func OpenURL(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return automation.Failure("no url given"), nil
	}
	target := normalizeURL(args[0])
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("opened %s", target), nil
}

// SearchGoogle runs a Google search for the joined arguments.
func SearchGoogle(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return automation.Failure("no search query given"), nil
	}
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("searching for %s", query), nil
}

// WikipediaSummary opens the Wikipedia article for the joined arguments.
func WikipediaSummary(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return automation.Failure("no topic given"), nil
	}
	target := "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("opened Wikipedia article for %s", topic), nil
}
