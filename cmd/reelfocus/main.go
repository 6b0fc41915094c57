// reelfocus is a small CLI over the sync core, useful for poking at the
// local state and driving syncs without the daemon.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/internal/config"
	"github.com/reelfocus/reelfocus/internal/logger"
	"github.com/reelfocus/reelfocus/syncservice"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "reelfocus",
		Short:   "ReelFocus - offline-first focus companion",
		Version: Version,
	}

	rootCmd.AddCommand(goalsCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(shopCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp wires the full app for one command invocation.
func withApp(fn func(ctx context.Context, app *syncservice.App) error) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := logger.New("reelfocus-cli")
	app, err := syncservice.Build(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Bootstrap(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}

// requireUser returns the configured user ID or an error when signed out.
func requireUser(app *syncservice.App) (string, error) {
	if app.Cfg.UserID == "" {
		return "", fmt.Errorf("no user configured; set REELFOCUS_USER_ID")
	}
	return app.Cfg.UserID, nil
}
