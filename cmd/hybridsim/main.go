package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "hybridsim",
	Short: "hybridsim runs hybrid Petri net simulations from net files",
	Long: `hybridsim loads a YAML net definition with discrete (immediate,
timed, stochastic) and continuous transitions and steps it with the
hybrid execution algorithm: at most one discrete firing per step,
continuous flow integrated with RK4 against the pre-firing marking.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
