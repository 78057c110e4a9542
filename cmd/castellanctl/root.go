package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "castellanctl",
	Short: "Castellan threat modeling server",
	Long:  `Castellan keeps threat models under review and exports the action items of approved models to external trackers.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
