package main

import (
	"context"
	"fmt"

	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Inspect and clean up sandboxes",
}

var sandboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sandboxes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		onlyOrphans, _ := cmd.Flags().GetBool("orphans")
		var sandboxes []*types.Sandbox
		if onlyOrphans {
			sandboxes, err = a.sb.ListOrphans(context.Background())
		} else {
			sandboxes, err = store.All[types.Sandbox, *types.Sandbox](a.store, store.Sandboxes)
		}
		if err != nil {
			return err
		}
		for _, sb := range sandboxes {
			fmt.Printf("%s  %-8s %-10s %s\n", sb.ID, sb.Status, sb.Branch, sb.Path)
		}
		return nil
	},
}

var sandboxCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove orphaned sandboxes (no live worker owns them)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		n, err := a.sb.ReconcileOrphans(context.Background())
		if err != nil {
			return err
		}
		printOK("removed %d orphaned sandbox(es)", n)
		return nil
	},
}

func init() {
	sandboxListCmd.Flags().Bool("orphans", false, "Only list sandboxes with no live worker")
	sandboxCmd.AddCommand(sandboxListCmd, sandboxCleanCmd)
}
