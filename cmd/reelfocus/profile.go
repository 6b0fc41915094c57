package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/syncservice"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and update the user profile",
	}
	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileFocusCmd())
	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				userID, err := requireUser(app)
				if err != nil {
					return err
				}
				p, err := app.Profiles.Get(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Printf("user:        %s\n", p.UserID)
				fmt.Printf("name:        %s\n", p.DisplayName)
				fmt.Printf("points:      %d\n", p.Points)
				fmt.Printf("best focus:  %ds\n", p.BestFocusSeconds)
				if p.NeedsSync {
					fmt.Println("(pending sync)")
				}
				return nil
			})
		},
	}
}

func profileFocusCmd() *cobra.Command {
	var points int

	cmd := &cobra.Command{
		Use:   "focus [seconds]",
		Short: "Record a completed focus session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				userID, err := requireUser(app)
				if err != nil {
					return err
				}
				var seconds int
				if _, err := fmt.Sscanf(args[0], "%d", &seconds); err != nil {
					return fmt.Errorf("invalid seconds: %q", args[0])
				}
				if _, err := app.Profiles.RecordFocusDuration(ctx, userID, seconds); err != nil {
					return err
				}
				if points > 0 {
					if _, err := app.Profiles.AwardPoints(ctx, userID, points); err != nil {
						return err
					}
				}
				fmt.Printf("recorded %ds focus session\n", seconds)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&points, "points", "p", 0, "Points earned for the session")
	return cmd
}
