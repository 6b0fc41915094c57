package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/syncservice"
)

func shopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Browse and buy fishing cosmetics",
	}
	cmd.AddCommand(shopListCmd())
	cmd.AddCommand(shopBuyCmd())
	cmd.AddCommand(shopSelectCmd())
	return cmd
}

func shopListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog and owned items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				owned, err := app.Items.List(ctx)
				if err != nil {
					return err
				}
				ownedByName := make(map[string]*model.PurchasedItem, len(owned))
				for _, it := range owned {
					ownedByName[it.ItemName] = it
				}

				for _, entry := range model.Catalog() {
					status := ""
					if it, ok := ownedByName[entry.Name]; ok {
						status = "owned"
						if it.IsSelected {
							status = "selected"
						}
					}
					fmt.Printf("%-14s %4d pts  %s\n", entry.Name, entry.Price, status)
				}
				return nil
			})
		},
	}
}

func shopBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy [item-name]",
		Short: "Buy a catalog item with focus points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				userID, err := requireUser(app)
				if err != nil {
					return err
				}
				it, err := app.Items.Purchase(ctx, userID, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("bought and selected %s\n", it.ItemName)
				return nil
			})
		},
	}
}

func shopSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [id]",
		Short: "Select an owned item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *syncservice.App) error {
				it, err := app.Items.Select(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("selected %s\n", it.ItemName)
				return nil
			})
		},
	}
}
