package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskmate-ai/deskmate/common/version"
	"github.com/deskmate-ai/deskmate/internal/deskmate/app"
	"github.com/deskmate-ai/deskmate/internal/deskmate/config"
	"github.com/deskmate-ai/deskmate/internal/deskmate/handler"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskmate",
		Short: "Adaptive desktop automation assistant",
		Long: `Deskmate turns free-form text commands into desktop automation actions.
Unknown commands are learned interactively and remembered, and executed
actions can be undone and redone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return a.Run(cmd.Context())
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default ./settings.yaml)")

	rootCmd.AddCommand(
		newExecCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newHistoryCmd(),
		newActionsCmd(),
		newClearCmd(),
		newUserCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("deskmate %s\n", version.Info())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp builds the application, runs fn, and tears everything down.
func withApp(fn func(*app.App) error) error {
	path := cfgFile
	if path == "" {
		path = "./settings.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func printResponse(resp *handler.Response) error {
	if resp.Status == handler.StatusSuccess {
		fmt.Println(resp.Message)
		return nil
	}
	return fmt.Errorf("%s", resp.Message)
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command text>",
		Short: "Resolve and execute a single command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return printResponse(a.Handler().Execute(cmd.Context(), strings.Join(args, " ")))
			})
		},
	}
}

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last executed action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return printResponse(a.Handler().Undo(cmd.Context()))
			})
		},
	}
}

func newRedoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone action",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return printResponse(a.Handler().Redo(cmd.Context()))
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [n]",
		Short: "Show recent history events, most recent first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := 50
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid history limit %q", args[0])
				}
				limit = n
			}
			return withApp(func(a *app.App) error {
				events, err := a.Handler().History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, e := range events {
					fmt.Printf("%s  %-7s  %s (%s)\n",
						e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.Command, e.ActionKey)
				}
				return nil
			})
		},
	}
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the discoverable action keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				for _, key := range a.ActionKeys() {
					fmt.Println(key)
				}
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <command text>",
		Short: "Forget the learned mapping for a command text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return printResponse(a.Handler().ClearMapping(cmd.Context(), strings.Join(args, " ")))
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	userCmd.AddCommand(&cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Set a user's role (admin, standard_user, guest)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return a.Gate().SetUserRole(args[0], args[1])
			})
		},
	})
	return userCmd
}
