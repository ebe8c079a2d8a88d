package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mealplanner/internal/cli"
	"mealplanner/internal/config"
	"mealplanner/internal/log"
)

var (
	dbPath   string
	logLevel string
	logger   *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mealplanctl",
	Short: "Meal planner maintenance and inspection tool",
	Long: `mealplanctl works directly on the meal planner SQLite database.

Use it to apply schema migrations, list the unit vocabulary, or print a
user's aggregated shopping list without going through the web server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = cli.SetupLogger(log.ComponentCLI, logLevel)
	},
}

func init() {
	cli.LoadEnvFile()
	cfg := config.Load()

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.SQLiteDBPath, "path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(shoppingListCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
