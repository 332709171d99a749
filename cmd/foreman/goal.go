package main

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/spf13/cobra"
)

const maxSlugLen = 40

// slugify derives a Goal display name from its free-form text: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, trimmed of leading
// and trailing hyphens, capped at maxSlugLen.
func slugify(text string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen && b.Len() > 0:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals",
}

var goalNewCmd = &cobra.Command{
	Use:   "new <text>",
	Short: "Create a goal against a codebase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		codebase, _ := cmd.Flags().GetString("codebase")
		budget, _ := cmd.Flags().GetFloat64("budget")

		cb, err := findCodebaseByName(a, codebase)
		if err != nil {
			return err
		}
		if name == "" {
			name = slugify(args[0])
		}
		goal := &types.Goal{Name: name, Text: args[0], Status: types.GoalPending, CodebaseID: cb.ID}
		if budget > 0 {
			goal.BudgetUSD = &budget
		}
		if err := store.Insert[types.Goal, *types.Goal](a.store, store.Goals, "qst", goal); err != nil {
			return err
		}
		printOK("goal %s created against %s", goal.ID, cb.Name)
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goals, err := store.All[types.Goal, *types.Goal](a.store, store.Goals)
		if err != nil {
			return err
		}
		for _, g := range goals {
			fmt.Printf("%s  %-10s %s\n", g.ID, g.Status, g.Text)
		}
		return nil
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a goal and its work items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goal, err := store.Fetch[types.Goal, *types.Goal](a.store, store.Goals, args[0])
		if err != nil {
			return err
		}
		items, err := a.items.ListByGoal(goal.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n%s\nstatus: %s\n\n", goal.ID, goal.Name, goal.Text, goal.Status)
		for _, item := range items {
			fmt.Printf("  %s  %-10s %s\n", item.ID, item.Status, item.Title)
		}
		return nil
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		if err := store.Delete(a.store, store.Goals, args[0]); err != nil {
			return err
		}
		printOK("goal %s deleted", args[0])
		return nil
	},
}

var goalMergeCmd = &cobra.Command{
	Use:   "merge <id>",
	Short: "Merge every done work item's sandbox back into its codebase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		ctx := context.Background()
		items, err := a.items.ListByGoal(args[0])
		if err != nil {
			return err
		}
		merged := 0
		for _, item := range items {
			if item.Status != types.ItemDone || item.WorkerID == "" {
				continue
			}
			sb, ok, err := store.FindOne[types.Sandbox, *types.Sandbox](a.store, store.Sandboxes, func(s *types.Sandbox) bool {
				return s.WorkerID == item.WorkerID && s.Status == types.SandboxActive
			})
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := a.sb.MergeBack(ctx, sb.ID); err != nil {
				printInfo("work item %s merge failed: %v", item.ID, err)
				continue
			}
			merged++
		}
		printOK("merged %d work item(s)", merged)
		return nil
	},
}

var goalReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Summarize a goal's progress and cost",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		goal, err := store.Fetch[types.Goal, *types.Goal](a.store, store.Goals, args[0])
		if err != nil {
			return err
		}
		items, err := a.items.ListByGoal(goal.ID)
		if err != nil {
			return err
		}
		counts := map[types.WorkItemStatus]int{}
		for _, item := range items {
			counts[item.Status]++
		}
		status, err := a.costs.Check(goal.ID)
		if err != nil {
			return err
		}
		fmt.Printf("goal %s: %s\n", goal.ID, goal.Text)
		fmt.Printf("status:    %s (derived: %s)\n", goal.Status, workitem.GoalStatus(items))
		fmt.Printf("items:     %d total\n", len(items))
		for _, st := range []types.WorkItemStatus{types.ItemPending, types.ItemAssigned, types.ItemRunning, types.ItemDone, types.ItemFailed, types.ItemBlocked} {
			if counts[st] > 0 {
				fmt.Printf("  %-10s %d\n", st, counts[st])
			}
		}
		fmt.Printf("spent:     $%.6f of $%.2f budget\n", status.Spent, status.Spent+status.Remaining)
		if !status.OK {
			fmt.Printf("budget:    EXCEEDED by $%.6f\n", -status.Remaining)
		}
		return nil
	},
}

func init() {
	goalNewCmd.Flags().String("name", "", "Display name")
	goalNewCmd.Flags().String("codebase", "", "Codebase name or ID the goal targets")
	goalNewCmd.Flags().Float64("budget", 0, "Per-goal budget override in USD (0 uses the workspace default)")
	goalNewCmd.MarkFlagRequired("codebase")

	goalCmd.AddCommand(goalNewCmd, goalListCmd, goalShowCmd, goalDeleteCmd, goalMergeCmd, goalReportCmd)
}
