package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/syncservice"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one full sync pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				if !app.Orch.FullSync(ctx) {
					st := app.Orch.Status()
					if st.LastError != "" {
						return fmt.Errorf("sync failed: %s", st.LastError)
					}
					return fmt.Errorf("sync skipped")
				}
				if st := app.Orch.Status(); st.LastError != "" {
					fmt.Printf("sync completed with remote errors: %s\n", st.LastError)
					return nil
				}
				fmt.Println("sync completed")
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				st := app.Orch.Status()
				if st.LastSyncTime != nil {
					fmt.Printf("last sync:  %s\n", st.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
				} else {
					fmt.Println("last sync:  never")
				}
				if st.LastError != "" {
					fmt.Printf("last error: %s\n", st.LastError)
				}
				if err := app.Remote.Ping(ctx); err != nil {
					fmt.Println("remote:     unreachable")
				} else {
					fmt.Println("remote:     reachable")
				}
				return nil
			})
		},
	}
}
