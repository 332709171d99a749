package main

import (
	"fmt"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/spf13/cobra"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Send and inspect bus signals",
}

var signalSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a signal onto the bus",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		subject, _ := cmd.Flags().GetString("subject")
		body, _ := cmd.Flags().GetString("body")

		sig := &types.Signal{From: from, To: to, Subject: subject, Body: body}
		if err := a.bus.Send(sig); err != nil {
			return err
		}
		printOK("signal %s sent to %s", sig.ID, sig.To)
		return nil
	},
}

var signalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signals, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		to, _ := cmd.Flags().GetString("to")
		from, _ := cmd.Flags().GetString("from")
		unread, _ := cmd.Flags().GetBool("unread")

		opts := bus.ListOptions{To: to, From: from}
		if unread {
			f := false
			opts.Read = &f
		}
		signals, err := a.bus.List(opts)
		if err != nil {
			return err
		}
		for _, sig := range signals {
			fmt.Printf("%s  %-12s -> %-12s %-16s %s\n", sig.ID, sig.From, sig.To, sig.Subject, sig.Body)
		}
		return nil
	},
}

var signalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a signal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(workspaceRoot(cmd))
		if err != nil {
			return err
		}
		sig, err := store.Fetch[types.Signal, *types.Signal](a.store, store.Signals, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\nfrom:    %s\nto:      %s\nsubject: %s\nbody:    %s\nread:    %v\n",
			sig.ID, sig.From, sig.To, sig.Subject, sig.Body, sig.Read)
		return nil
	},
}

func init() {
	signalSendCmd.Flags().String("from", "cli", "Sender identity recorded on the signal")
	signalSendCmd.Flags().String("to", "", "Recipient")
	signalSendCmd.Flags().String("subject", "", "Subject line")
	signalSendCmd.Flags().String("body", "", "Free-form body")
	signalSendCmd.MarkFlagRequired("to")
	signalSendCmd.MarkFlagRequired("subject")

	signalListCmd.Flags().String("to", "", "Filter by recipient")
	signalListCmd.Flags().String("from", "", "Filter by sender")
	signalListCmd.Flags().Bool("unread", false, "Only show unread signals")

	signalCmd.AddCommand(signalSendCmd, signalListCmd, signalShowCmd)
}
