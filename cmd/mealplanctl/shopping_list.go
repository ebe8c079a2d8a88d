package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mealplanner/internal/cli"
	"mealplanner/internal/core"
	"mealplanner/internal/shopping"
)

var shoppingListCmd = &cobra.Command{
	Use:   "shopping-list",
	Short: "Print a user's aggregated shopping list",
	Long: `Print the shopping list for every meal a user planned from --today
until --date, both inclusive.

Examples:
  # Everything planned until the end of the week
  mealplanctl shopping-list --user alice --date 2025-03-16

  # Pretend today is another day
  mealplanctl shopping-list --user alice --date 2025-03-16 --today 2025-03-10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("user")
		dateFlag, _ := cmd.Flags().GetString("date")
		todayFlag, _ := cmd.Flags().GetString("today")

		if strings.TrimSpace(username) == "" {
			return errors.New("--user is required")
		}
		today := core.DateOf(time.Now())
		if todayFlag != "" {
			d, err := core.ParseDate(todayFlag)
			if err != nil {
				return fmt.Errorf("--today: %w", err)
			}
			today = d
		}
		selected, err := core.ParseDate(dateFlag)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}

		repo, err := cli.OpenSQLite(logger, dbPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		ctx := cmd.Context()
		user, err := repo.GetUserByUsername(ctx, username)
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("no user named %q", username)
		}
		if err != nil {
			return err
		}

		list, err := shopping.NewService(repo, logger).Build(ctx, user.ID, today, selected)
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), user.Username, today, selected, list)
		return nil
	},
}

func init() {
	shoppingListCmd.Flags().String("user", "", "username whose meals are aggregated")
	shoppingListCmd.Flags().String("date", "", "last day included (YYYY-MM-DD)")
	shoppingListCmd.Flags().String("today", "", "first day included (YYYY-MM-DD, default today)")
	_ = shoppingListCmd.MarkFlagRequired("date")
}

func printList(w io.Writer, username string, from, to core.Date, list shopping.List) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("Shopping list for %s, %s..%s", username, from, to)))

	if len(list.Items) == 0 {
		fmt.Fprintf(w, "  %s\n", gray("Nothing to buy"))
	}
	for _, it := range list.Items {
		parts := make([]string, len(it.Quantities))
		for i, q := range it.Quantities {
			parts[i] = q.String()
		}
		qty := strings.Join(parts, ", ")
		if it.Mixed() {
			qty = yellow("[" + qty + "]")
		}
		fmt.Fprintf(w, "  %-24s %s\n", it.Name, qty)
	}

	if len(list.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow("Warnings:"))
		for _, warn := range list.Warnings {
			fmt.Fprintf(w, "  ! %s\n", warn)
		}
	}
}
