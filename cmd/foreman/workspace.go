package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/foreman/pkg/config"
	"github.com/cuemby/foreman/pkg/overseer"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace skeleton",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		quick, _ := cmd.Flags().GetBool("quick")
		root := workspaceRoot(cmd)

		if _, err := config.Init(root, force); err != nil {
			return err
		}
		printOK("workspace initialized at %s", config.NewPaths(root).Dir())

		if quick {
			if err := quickRegisterCodebases(root); err != nil {
				return err
			}
		}
		return nil
	},
}

// quickRegisterCodebases scans root's immediate subdirectories for a .git
// marker and registers each as a codebase with the manual merge policy.
func quickRegisterCodebases(root string) error {
	paths := config.NewPaths(root)
	s, err := store.Open(paths.StoreDir())
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == config.DirName {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			continue
		}
		cb := &types.Codebase{Name: entry.Name(), Path: dir, MergePolicy: types.MergePolicyManual}
		if err := store.Insert[types.Codebase, *types.Codebase](s, store.Codebases, "cmb", cb); err != nil {
			return err
		}
		printInfo("registered codebase %s at %s", cb.Name, cb.Path)
	}
	return nil
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run the diagnostic battery",
	RunE: func(cmd *cobra.Command, args []string) error {
		fix, _ := cmd.Flags().GetBool("fix")
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		results := a.sup.RunAll(context.Background(), fix)
		worst := overseer.SeverityOK
		for _, d := range results {
			fmt.Printf("%-28s %-6s %s\n", d.Name, d.Status, d.Message)
			if d.Status == overseer.SeverityError {
				worst = overseer.SeverityError
			} else if d.Status == overseer.SeverityWarn && worst != overseer.SeverityError {
				worst = overseer.SeverityWarn
			}
		}
		if worst != overseer.SeverityOK {
			return fmt.Errorf("doctor found issues at %s severity", worst)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing workspace")
	initCmd.Flags().Bool("quick", false, "Auto-register nearby version-controlled directories as codebases")
	doctorCmd.Flags().Bool("fix", false, "Apply fixes for fixable diagnostics")
}
