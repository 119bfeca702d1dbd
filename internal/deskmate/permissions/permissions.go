// Package permissions enforces role-based access to automation actions
// before they execute. Denial short-circuits execution and keeps the action
// out of the history engine.
package permissions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
)

// ErrDenied is returned when the gate rejects an action for a user.
var ErrDenied = errors.New("permission denied")

// Known roles.
const (
	RoleAdmin    = "admin"
	RoleStandard = "standard_user"
	RoleGuest    = "guest"
)

// policy describes what a role may do. Category names are automation module
// names.
type policy struct {
	allowAll          bool
	allowedCategories map[string]bool
	blockedActions    map[string]bool
}

// safeReadOnlyActions are allowed for every role, including guests.
var safeReadOnlyActions = map[string]bool{
	"browser:open_url":              true,
	"browser:search_google":         true,
	"browser:get_wikipedia_summary": true,
	"media:play_video":              true,
	"media:search_and_play":         true,
	"apps:list_running_apps":        true,
}

var rolePolicies = map[string]policy{
	RoleAdmin: {allowAll: true},
	RoleStandard: {
		allowedCategories: map[string]bool{
			"apps": true, "browser": true, "media": true, "email": true,
		},
		blockedActions: map[string]bool{
			"system:shutdown": true,
			"system:restart":  true,
		},
	},
	RoleGuest: {},
}

// userRecord is the on-disk shape of one users.json entry.
type userRecord struct {
	Role string `json:"role"`
}

// Gate checks users against role policies. The user store is a JSON file
// written with atomic replace.
type Gate struct {
	usersPath string
	logger    *slog.Logger
}

// NewGate creates a Gate over the user store at usersPath.
func NewGate(usersPath string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{usersPath: usersPath, logger: logger}
}

// readUsers loads the user store. A missing or unreadable file yields an
// empty map: every unknown user is a guest.
func (g *Gate) readUsers() map[string]userRecord {
	data, err := os.ReadFile(g.usersPath)
	if err != nil {
		return map[string]userRecord{}
	}
	var users map[string]userRecord
	if err := json.Unmarshal(data, &users); err != nil {
		g.logger.Debug("failed to parse user store", "path", g.usersPath, "error", err)
		return map[string]userRecord{}
	}
	return users
}

// Role returns the user's role, defaulting to guest.
func (g *Gate) Role(userID string) string {
	if rec, ok := g.readUsers()[userID]; ok {
		if _, known := rolePolicies[rec.Role]; known {
			return rec.Role
		}
	}
	return RoleGuest
}

// SetUserRole sets or updates a user's role with an atomic file replace.
func (g *Gate) SetUserRole(userID, role string) error {
	userID = strings.TrimSpace(userID)
	role = strings.TrimSpace(role)
	if userID == "" {
		return fmt.Errorf("user id must not be empty")
	}
	if _, known := rolePolicies[role]; !known {
		return fmt.Errorf("unknown role %q", role)
	}

	users := g.readUsers()
	users[userID] = userRecord{Role: role}

	if dir := filepath.Dir(g.usersPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create user store directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user store: %w", err)
	}

	tmp := g.usersPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user store: %w", err)
	}
	if err := os.Rename(tmp, g.usersPath); err != nil {
		return fmt.Errorf("failed to replace user store: %w", err)
	}

	g.logger.Info("user role updated", "user", userID, "role", role)
	return nil
}

// Enforce returns nil when userID may execute actionKey, or an error
// wrapping ErrDenied otherwise.
func (g *Gate) Enforce(userID, actionKey string) error {
	role := g.Role(userID)
	pol := rolePolicies[role]

	if pol.allowAll {
		return nil
	}
	if pol.blockedActions[actionKey] {
		return fmt.Errorf("%w: %s is blocked for role %s", ErrDenied, actionKey, role)
	}
	if safeReadOnlyActions[actionKey] {
		return nil
	}

	module, _, ok := catalog.SplitKey(actionKey)
	if ok && pol.allowedCategories[module] {
		return nil
	}

	return fmt.Errorf("%w: role %s may not execute %s", ErrDenied, role, actionKey)
}
