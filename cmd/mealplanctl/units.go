package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mealplanner/internal/units"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Print the unit vocabulary grouped by dimension",
	Run: func(cmd *cobra.Command, args []string) {
		printUnits(cmd.OutOrStdout())
	},
}

func printUnits(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	for i, d := range []units.Dimension{units.Mass, units.Volume} {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", cyan(d.String()))
		for _, u := range units.ByDimension(d) {
			fmt.Fprintf(w, "  %-12s %s\n", u.Name, gray(u.Symbol))
		}
	}
}
