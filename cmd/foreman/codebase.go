package main

import (
	"fmt"

	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var codebaseCmd = &cobra.Command{
	Use:   "codebase",
	Short: "Manage registered codebases",
}

var codebaseAddCmd = &cobra.Command{
	Use:   "add <path-or-url>",
	Short: "Register a codebase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		mergePolicy, _ := cmd.Flags().GetString("merge-policy")
		validationCmd, _ := cmd.Flags().GetString("validation-command")
		owner, _ := cmd.Flags().GetString("code-host-owner")
		repo, _ := cmd.Flags().GetString("code-host-repo")
		if name == "" {
			name = args[0]
		}
		cb := &types.Codebase{
			Name: name, Path: args[0], MergePolicy: types.MergePolicy(mergePolicy),
			ValidationCmd: validationCmd, CodeHostOwner: owner, CodeHostRepo: repo,
		}
		if cb.MergePolicy == "" {
			cb.MergePolicy = types.MergePolicyManual
		}
		if err := store.Insert[types.Codebase, *types.Codebase](a.store, store.Codebases, "cmb", cb); err != nil {
			return err
		}
		printOK("codebase %s registered (%s)", cb.ID, cb.Name)
		return nil
	},
}

var codebaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered codebases",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		codebases, err := store.All[types.Codebase, *types.Codebase](a.store, store.Codebases)
		if err != nil {
			return err
		}
		for _, cb := range codebases {
			fmt.Printf("%s  %-20s %-8s %s\n", cb.ID, cb.Name, cb.MergePolicy, cb.Path)
		}
		return nil
	},
}

var codebaseRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a registered codebase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		cb, err := findCodebaseByName(a, args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(a.store, store.Codebases, cb.ID); err != nil {
			return err
		}
		printOK("codebase %s removed", cb.Name)
		return nil
	},
}

var codebaseUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current codebase for session-relative commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		cb, err := findCodebaseByName(a, args[0])
		if err != nil {
			return err
		}
		if err := a.cfg.Set("session", "current_codebase", cb.ID); err != nil {
			return err
		}
		if err := a.cfg.Save(); err != nil {
			return err
		}
		printOK("current codebase set to %s", cb.Name)
		return nil
	},
}

func findCodebaseByName(a *app, name string) (*types.Codebase, error) {
	cb, ok, err := store.FindOne[types.Codebase, *types.Codebase](a.store, store.Codebases, func(c *types.Codebase) bool {
		return c.Name == name || c.ID == name
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("codebase %q not found", name)
	}
	return cb, nil
}

func init() {
	codebaseAddCmd.Flags().String("name", "", "Display name (defaults to the path)")
	codebaseAddCmd.Flags().String("merge-policy", "manual", "manual, auto, or pr")
	codebaseAddCmd.Flags().String("validation-command", "", "Command run against a sandbox before merge")
	codebaseAddCmd.Flags().String("code-host-owner", "", "Code-host owner/org for PR merge policy")
	codebaseAddCmd.Flags().String("code-host-repo", "", "Code-host repo for PR merge policy")

	codebaseCmd.AddCommand(codebaseAddCmd, codebaseListCmd, codebaseRemoveCmd, codebaseUseCmd)
}
