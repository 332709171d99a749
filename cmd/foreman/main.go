package main

import (
	"fmt"
	"os"

	"github.com/cuemby/foreman/pkg/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Foreman - orchestrates coding-agent workers against your codebases",
	Long: `Foreman decomposes a goal into work items, spawns LLM-driven workers
against isolated sandboxes, tracks their cost, and merges finished work
back into your codebases.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("foreman version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("workspace", ".", "Workspace root directory")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(codebaseCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(costsCmd)
	rootCmd.AddCommand(sandboxCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(conflictCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(overseerCmd)
	rootCmd.AddCommand(patrolCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func workspaceRoot(cmd *cobra.Command) string {
	root, _ := cmd.Flags().GetString("workspace")
	return root
}

func printOK(format string, args ...any) {
	fmt.Printf("OK "+format+"\n", args...)
}

func printInfo(format string, args ...any) {
	fmt.Printf("INFO "+format+"\n", args...)
}
