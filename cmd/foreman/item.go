package main

import (
	"context"
	"fmt"

	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage work items",
}

var itemCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a work item to a goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goalID, _ := cmd.Flags().GetString("goal")
		title, _ := cmd.Flags().GetString("title")
		codebaseID, _ := cmd.Flags().GetString("codebase")
		desc, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetInt("priority")

		goal, err := store.Fetch[types.Goal, *types.Goal](a.store, store.Goals, goalID)
		if err != nil {
			return err
		}
		if codebaseID == "" {
			codebaseID = goal.CodebaseID
		}
		item := &types.WorkItem{
			Title:       title,
			Description: desc,
			Status:      types.ItemPending,
			GoalID:      goal.ID,
			CodebaseID:  codebaseID,
			Priority:    priority,
		}
		if err := a.items.Create(item); err != nil {
			return err
		}
		printOK("work item %s created", item.ID)
		return nil
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work items, optionally filtered by goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goalID, _ := cmd.Flags().GetString("goal")
		var items []*types.WorkItem
		if goalID != "" {
			items, err = a.items.ListByGoal(goalID)
		} else {
			items, err = a.items.List()
		}
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%s  %-10s p%-2d %s\n", item.ID, item.Status, item.Priority, item.Title)
		}
		return nil
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a work item and its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		item, err := a.items.Get(args[0])
		if err != nil {
			return err
		}
		deps, err := a.items.Dependencies(item.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\nstatus:  %s\ngoal:    %s\nworker:  %s\n", item.ID, item.Title, item.Status, item.GoalID, item.WorkerID)
		for _, d := range deps {
			fmt.Printf("  depends on %s (%s) [%s]\n", d.ID, d.Title, d.Status)
		}
		return nil
	},
}

var itemResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Forcibly clean up a work item's worker and sandbox and return it to pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		if err := a.items.Reset(context.Background(), args[0]); err != nil {
			return err
		}
		printOK("work item %s reset", args[0])
		return nil
	},
}

var itemDepCmd = &cobra.Command{
	Use:   "deps",
	Short: "Manage work item dependencies",
}

var itemDepAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Make --item depend on --depends-on",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		item, _ := cmd.Flags().GetString("item")
		dependsOn, _ := cmd.Flags().GetString("depends-on")
		if err := a.items.AddDependency(item, dependsOn); err != nil {
			return err
		}
		printOK("%s now depends on %s", item, dependsOn)
		return nil
	},
}

var itemDepRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a dependency edge",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		item, _ := cmd.Flags().GetString("item")
		dependsOn, _ := cmd.Flags().GetString("depends-on")
		if err := a.items.RemoveDependency(item, dependsOn); err != nil {
			return err
		}
		printOK("dependency %s -> %s removed", item, dependsOn)
		return nil
	},
}

var itemDepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a work item's dependencies and dependents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		item, _ := cmd.Flags().GetString("item")
		deps, err := a.items.Dependencies(item)
		if err != nil {
			return err
		}
		dependents, err := a.items.Dependents(item)
		if err != nil {
			return err
		}
		fmt.Println("depends on:")
		for _, d := range deps {
			fmt.Printf("  %s  %-10s %s\n", d.ID, d.Status, d.Title)
		}
		fmt.Println("blocks:")
		for _, d := range dependents {
			fmt.Printf("  %s  %-10s %s\n", d.ID, d.Status, d.Title)
		}
		return nil
	},
}

func init() {
	itemCreateCmd.Flags().String("goal", "", "Goal this item belongs to")
	itemCreateCmd.Flags().String("title", "", "Short title")
	itemCreateCmd.Flags().String("codebase", "", "Codebase ID (defaults to the goal's codebase)")
	itemCreateCmd.Flags().String("description", "", "Longer description handed to the worker as its prompt")
	itemCreateCmd.Flags().Int("priority", 0, "Higher runs first among ready items")
	itemCreateCmd.MarkFlagRequired("goal")
	itemCreateCmd.MarkFlagRequired("title")

	itemListCmd.Flags().String("goal", "", "Restrict to one goal's items")

	for _, c := range []*cobra.Command{itemDepAddCmd, itemDepRemoveCmd, itemDepListCmd} {
		c.Flags().String("item", "", "Work item ID")
	}
	itemDepAddCmd.Flags().String("depends-on", "", "Work item ID that must finish first")
	itemDepRemoveCmd.Flags().String("depends-on", "", "Work item ID to unlink")
	itemDepAddCmd.MarkFlagRequired("item")
	itemDepAddCmd.MarkFlagRequired("depends-on")
	itemDepRemoveCmd.MarkFlagRequired("item")
	itemDepRemoveCmd.MarkFlagRequired("depends-on")
	itemDepListCmd.MarkFlagRequired("item")

	itemDepCmd.AddCommand(itemDepAddCmd, itemDepRemoveCmd, itemDepListCmd)
	itemCmd.AddCommand(itemCreateCmd, itemListCmd, itemShowCmd, itemResetCmd, itemDepCmd)
}
