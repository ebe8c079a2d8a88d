package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mealplanner/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.RunMigrations(dbPath); err != nil {
			return err
		}
		version, dirty, ok, err := storage.SchemaVersion(dbPath)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		out := cmd.OutOrStdout()
		switch {
		case !ok:
			fmt.Fprintln(out, "No migrations applied")
		case dirty:
			fmt.Fprintf(out, "%s schema version %d is dirty\n", color.New(color.FgRed).Sprint("✗"), version)
		default:
			fmt.Fprintf(out, "%s %s is at schema version %d\n", green("✓"), dbPath, version)
		}
		return nil
	},
}
