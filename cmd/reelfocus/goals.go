package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/syncservice"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage goals",
	}
	cmd.AddCommand(goalsAddCmd())
	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsRmCmd())
	return cmd
}

func goalsAddCmd() *cobra.Command {
	var due string
	var description string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				dueTime, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid --due date: %w", err)
				}
				g, err := app.Goals.Create(ctx, args[0], dueTime, description)
				if err != nil {
					return err
				}
				fmt.Printf("created goal %s\n", g.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	return cmd
}

func goalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals and their tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				goals, err := app.Goals.List(ctx)
				if err != nil {
					return err
				}
				if len(goals) == 0 {
					fmt.Println("no goals")
					return nil
				}
				for _, g := range goals {
					marker := " "
					if g.NeedsSync {
						marker = "*"
					}
					fmt.Printf("%s %s  %s (due %s)\n", marker, g.ID, g.Name, g.Due.Format("2006-01-02"))
					tasks, err := app.Tasks.ListByGoal(ctx, g.ID)
					if err != nil {
						return err
					}
					for _, t := range tasks {
						done := " "
						if t.Completed {
							done = "x"
						}
						fmt.Printf("    [%s] %s  %s (%dm)\n", done, t.ID, t.Name, t.FocusMinutes)
					}
				}
				return nil
			})
		},
	}
}

func goalsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a goal and orphan its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				g, err := app.Goals.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := app.Goals.Delete(ctx, g); err != nil {
					return err
				}
				fmt.Printf("deleted goal %s\n", g.ID)
				return nil
			})
		},
	}
}
