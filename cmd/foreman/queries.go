package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show a goal's budget status",
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

var conflictCmd = &cobra.Command{
	Use:   "conflict",
	Short: "Check sandboxes for potential merge conflicts",
}

var conflictCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report files that changed on both a sandbox branch and its codebase's main branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		workerID, _ := cmd.Flags().GetString("worker")
		ctx := context.Background()

		var sandboxes []*types.Sandbox
		if workerID != "" {
			sb, ok, err := store.FindOne[types.Sandbox, *types.Sandbox](a.store, store.Sandboxes, func(s *types.Sandbox) bool {
				return s.WorkerID == workerID && s.Status == types.SandboxActive
			})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no active sandbox for worker %s", workerID)
			}
			sandboxes = []*types.Sandbox{sb}
		} else {
			sandboxes, err = store.Filter[types.Sandbox, *types.Sandbox](a.store, store.Sandboxes, func(s *types.Sandbox) bool {
				return s.Status == types.SandboxActive
			})
			if err != nil {
				return err
			}
		}

		for _, sb := range sandboxes {
			report, err := a.sb.ConflictCheck(ctx, sb.ID)
			if err != nil {
				return err
			}
			if report.Clean {
				fmt.Printf("%s  clean\n", sb.ID)
				continue
			}
			fmt.Printf("%s  %d potential conflict(s):\n", sb.ID, len(report.Files))
			for _, f := range report.Files {
				fmt.Printf("    %s\n", f)
			}
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the codebase's validation command against a worker's sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		workerID, _ := cmd.Flags().GetString("worker")

		sb, ok, err := store.FindOne[types.Sandbox, *types.Sandbox](a.store, store.Sandboxes, func(s *types.Sandbox) bool {
			return s.WorkerID == workerID && s.Status == types.SandboxActive
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no active sandbox for worker %s", workerID)
		}
		cb, err := store.Fetch[types.Codebase, *types.Codebase](a.store, store.Codebases, sb.CodebaseID)
		if err != nil {
			return err
		}
		if cb.ValidationCmd == "" {
			printInfo("codebase %s has no validation command configured", cb.Name)
			return nil
		}

		validation := exec.CommandContext(context.Background(), "sh", "-c", cb.ValidationCmd)
		validation.Dir = sb.Path
		out, err := validation.CombinedOutput()
		fmt.Print(string(out))
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		printOK("validation passed")
		return nil
	},
}

func init() {
	budgetCmd.Flags().String("goal", "", "Goal to check")
	budgetCmd.MarkFlagRequired("goal")

	conflictCheckCmd.Flags().String("worker", "", "Restrict the check to one worker's sandbox")
	conflictCmd.AddCommand(conflictCheckCmd)

	validateCmd.Flags().String("worker", "", "Worker whose sandbox to validate")
	validateCmd.MarkFlagRequired("worker")
}
