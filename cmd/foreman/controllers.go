package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/foreman/pkg/dashboard"
	"github.com/cuemby/foreman/pkg/overseer"
	"github.com/spf13/cobra"
)

const dashboardShutdownTimeout = dashboard.ShutdownTimeout

func dashboardServer(a *app, addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: dashboard.New(a.store, a.items, a.costs)}
}

var overseerCmd = &cobra.Command{
	Use:   "overseer",
	Short: "Run the control loop, health patrol, and cost tailer until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- a.sup.Run(ctx) }()

		fmt.Println("overseer running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nshutting down...")
			cancel()
			<-errCh
		case err := <-errCh:
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var patrolCmd = &cobra.Command{
	Use:   "patrol",
	Short: "Run only the health patrol until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		noFix, _ := cmd.Flags().GetBool("no-fix")
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}

		sup := overseer.New(a.store, a.bus, a.items, a.wrk, a.sb, a.costs, nil, a.paths, overseer.Config{
			PatrolAutoFix: !noFix,
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- sup.RunPatrolOnly(ctx) }()

		fmt.Println("patrol running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nshutting down...")
			cancel()
			<-errCh
		case err := <-errCh:
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve a read-only HTTP dashboard until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")

		srv := dashboardServer(a, addr)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		fmt.Printf("dashboard listening on %s. Press Ctrl+C to stop.\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nshutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), dashboardShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	patrolCmd.Flags().Bool("no-fix", false, "Report diagnostics without applying fixes")
	dashboardCmd.Flags().String("addr", ":8777", "Listen address")
}
