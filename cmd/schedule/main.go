package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/scheduleworks/client/cmd/schedule/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schedule",
		Short: "ScheduleWorks client",
		Long:  `ScheduleWorks is a schedule management client with swappable remote and local backends, persistent filters, and a built-in development server.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewAddCommand())
	rootCmd.AddCommand(commands.NewEditCommand())
	rootCmd.AddCommand(commands.NewRemoveCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewAlarmCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewClearCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
