// Package media provides video playback automation via the default browser.
package media

import (
	"context"
	"net/url"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// Module returns the media module spec.
func Module() (*automation.ModuleSpec, error) {
	return &automation.ModuleSpec{
		Name: "media",
		Functions: []automation.FunctionSpec{
			{Name: "play_video", Call: PlayVideo},
			{Name: "search_and_play", Call: SearchAndPlay},
		},
	}, nil
}

// PlayVideo searches YouTube for the joined arguments and opens the results.
func PlayVideo(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return automation.Failure("no video query given"), nil
	}
	target := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("playing %s", query), nil
}

// SearchAndPlay is an alias flow for PlayVideo kept for learned mappings that
// name it explicitly.
func SearchAndPlay(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	return PlayVideo(ctx, args, kwargs)
}
