package main

import (
	"fmt"

	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Inspect and record cost entries",
}

var costsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show spend against budget for a goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goalID, _ := cmd.Flags().GetString("goal")
		status, err := a.costs.Check(goalID)
		if err != nil {
			return err
		}
		fmt.Printf("spent:     $%.6f\n", status.Spent)
		fmt.Printf("remaining: $%.6f\n", status.Remaining)
		fmt.Printf("ok:        %v\n", status.OK)
		return nil
	},
}

var costsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manually record a cost entry against a worker (for out-of-band usage reporting)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		workerID, _ := cmd.Flags().GetString("worker")
		input, _ := cmd.Flags().GetInt64("input")
		output, _ := cmd.Flags().GetInt64("output")
		cacheRead, _ := cmd.Flags().GetInt64("cache-read")
		cacheWrite, _ := cmd.Flags().GetInt64("cache-write")
		model, _ := cmd.Flags().GetString("model")

		entry, err := a.costs.Record(workerID, cost.Attrs{
			InputTokens:      input,
			OutputTokens:     output,
			CacheReadTokens:  cacheRead,
			CacheWriteTokens: cacheWrite,
			Model:            model,
		})
		if err != nil {
			return err
		}
		printOK("recorded %s: $%.6f", entry.ID, entry.CostUSD)
		return nil
	},
}

var costsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cost entries for a worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		workerID, _ := cmd.Flags().GetString("worker")
		entries, err := store.Filter[types.CostEntry, *types.CostEntry](a.store, store.CostEntries, func(e *types.CostEntry) bool {
			return e.WorkerID == workerID
		})
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-20s in=%-8d out=%-8d $%.6f\n", e.ID, e.Model, e.InputTokens, e.OutputTokens, e.CostUSD)
		}
		return nil
	},
}

func init() {
	costsSummaryCmd.Flags().String("goal", "", "Goal to summarize")
	costsSummaryCmd.MarkFlagRequired("goal")

	costsRecordCmd.Flags().String("worker", "", "Worker the usage is attributed to")
	costsRecordCmd.Flags().Int64("input", 0, "Input token count")
	costsRecordCmd.Flags().Int64("output", 0, "Output token count")
	costsRecordCmd.Flags().Int64("cache-read", 0, "Cache-read token count")
	costsRecordCmd.Flags().Int64("cache-write", 0, "Cache-write token count")
	costsRecordCmd.Flags().String("model", "", "Model name; falls back to the pricing table default")
	costsRecordCmd.MarkFlagRequired("worker")

	costsListCmd.Flags().String("worker", "", "Worker to list entries for")
	costsListCmd.MarkFlagRequired("worker")

	costsCmd.AddCommand(costsSummaryCmd, costsRecordCmd, costsListCmd)
}
