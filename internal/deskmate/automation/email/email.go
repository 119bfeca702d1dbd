// Package email provides mail automation via the default mail client and
// webmail.
package email

import (
	"context"
	"net/url"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
)

// Module returns the email module spec.
func Module() (*automation.ModuleSpec, error) {
	return &automation.ModuleSpec{
		Name: "email",
		Functions: []automation.FunctionSpec{
			{Name: "open_inbox", Call: OpenInbox},
			{Name: "compose", Call: Compose},
		},
	}, nil
}

// OpenInbox opens the user's webmail inbox.
func OpenInbox(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	target := "https://mail.google.com/"
	if custom, ok := kwargs["inbox_url"]; ok && strings.TrimSpace(custom) != "" {
		target = strings.TrimSpace(custom)
	}
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("opened inbox"), nil
}

// Compose opens a mailto draft. The first argument is the recipient; an
// optional "subject" kwarg prefills the subject line.
func Compose(ctx context.Context, args []string, kwargs map[string]string) (*automation.Result, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return automation.Failure("no recipient given"), nil
	}
	recipient := strings.TrimSpace(args[0])

	target := "mailto:" + recipient
	if subject, ok := kwargs["subject"]; ok && subject != "" {
		target += "?subject=" + url.QueryEscape(subject)
	}
	if err := automation.OpenURL(ctx, target); err != nil {
		return nil, err
	}
	return automation.Success("composing mail to %s", recipient), nil
}
