package main

import (
	"context"
	"fmt"

	"github.com/cuemby/foreman/pkg/ids"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage workers",
}

var workerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		workers, err := a.wrk.List()
		if err != nil {
			return err
		}
		for _, w := range workers {
			fmt.Printf("%s  %-8s %-10s %s\n", w.ID, w.Status, w.Name, w.WorkItemID)
		}
		return nil
	},
}

var workerSpawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn a worker against a work item",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		itemID, _ := cmd.Flags().GetString("item")
		name, _ := cmd.Flags().GetString("name")
		detached, _ := cmd.Flags().GetBool("detached")
		if name == "" {
			name = ids.GenerateWorkerName()
		}

		ctx := context.Background()
		var worker *types.Worker
		if detached {
			worker, err = a.wrk.SpawnDetached(ctx, itemID, name)
		} else {
			worker, err = a.wrk.SpawnAttached(ctx, itemID, name)
		}
		if err != nil {
			return err
		}
		printOK("worker %s spawned for item %s", worker.ID, itemID)
		return nil
	},
}

var workerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("id")
		if err := a.wrk.Stop(id); err != nil {
			return err
		}
		printOK("worker %s stopped", id)
		return nil
	},
}

// workerCompleteCmd and workerFailCmd are invoked by the wrapper script
// generated for each worker, not interactively. They report the worker's
// outcome back to the engine, which updates the worker, advances the work
// item, unblocks its dependents on completion, and signals the overseer.
// No merge is attempted here; merging is done by `goal merge`.
var workerCompleteCmd = &cobra.Command{
	Use:    "complete <id>",
	Short:  "Report that a worker finished its work item successfully",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		if err := a.wrk.Complete(context.Background(), args[0]); err != nil {
			return err
		}
		printOK("worker %s completed", args[0])
		return nil
	},
}

var workerFailCmd = &cobra.Command{
	Use:    "fail <id>",
	Short:  "Report that a worker failed its work item",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		if err := a.wrk.Fail(context.Background(), args[0], reason); err != nil {
			return err
		}
		printOK("worker %s failed", args[0])
		return nil
	},
}

func init() {
	workerSpawnCmd.Flags().String("item", "", "Work item to spawn against")
	workerSpawnCmd.Flags().String("codebase", "", "Ignored: the worker always runs against the item's codebase")
	workerSpawnCmd.Flags().String("name", "", "Display name (defaults to a generated adjective-noun-hex name)")
	workerSpawnCmd.Flags().Bool("detached", false, "Spawn the wrapper script without supervising it from this process")
	workerSpawnCmd.MarkFlagRequired("item")

	workerStopCmd.Flags().String("id", "", "Worker ID to stop")
	workerStopCmd.MarkFlagRequired("id")

	workerFailCmd.Flags().String("reason", "", "Failure reason recorded on the work item")

	workerCmd.AddCommand(workerListCmd, workerSpawnCmd, workerStopCmd, workerCompleteCmd, workerFailCmd)
}
