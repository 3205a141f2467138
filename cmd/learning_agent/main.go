// Package main provides the entry point for the LastMinute learning agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "learning_agent",
	Short: "LastMinute learning event generator",
	Long:  "LastMinute turns uploaded study material into an interactive learning event: prioritized concepts, a mission-style story with a checklist, and illustrated story beats.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
