package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/syncservice"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks",
	}
	cmd.AddCommand(tasksAddCmd())
	cmd.AddCommand(tasksDoneCmd())
	cmd.AddCommand(tasksRmCmd())
	return cmd
}

func tasksAddCmd() *cobra.Command {
	var start string
	var minutes int

	cmd := &cobra.Command{
		Use:   "add [goal-id] [name]",
		Short: "Create a task under a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				startTime := time.Now()
				if start != "" {
					var err error
					startTime, err = time.Parse(time.RFC3339, start)
					if err != nil {
						return fmt.Errorf("invalid --start time: %w", err)
					}
				}
				t, err := app.Tasks.Create(ctx, args[0], args[1], startTime, minutes)
				if err != nil {
					return err
				}
				fmt.Printf("created task %s\n", t.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Start time (RFC3339), defaults to now")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 25, "Focus duration in minutes")
	return cmd
}

func tasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				t, err := app.Tasks.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := app.Tasks.Complete(ctx, t); err != nil {
					return err
				}
				fmt.Printf("completed task %s\n", t.ID)
				return nil
			})
		},
	}
}

func tasksRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				t, err := app.Tasks.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := app.Tasks.Delete(ctx, t); err != nil {
					return err
				}
				fmt.Printf("deleted task %s\n", t.ID)
				return nil
			})
		},
	}
}
