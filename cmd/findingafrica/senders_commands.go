package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingsdigitallab/finding-africa/internal/registry"
)

func newSendersCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Manage the registered sender list",
	}

	cmd.AddCommand(newSendersListCommand(cmdCtx))
	cmd.AddCommand(newSendersAddCommand(cmdCtx))
	cmd.AddCommand(newSendersRemoveCommand(cmdCtx))

	return cmd
}

func newSendersListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered senders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			senders, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(senders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No senders registered.")
				return nil
			}

			rows := make([][]string, 0, len(senders))
			for _, sender := range senders {
				rows = append(rows, []string{
					sender.Address,
					sender.Code,
					sender.Language,
					strconv.FormatInt(sender.Sequence, 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Address", "Code", "Language", "Sequence"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newSendersAddCommand(cmdCtx *commandContext) *cobra.Command {
	var code string
	var lang string

	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Register a sender or update its code and language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sender := registry.Sender{
				Address:  args[0],
				Code:     strings.ToUpper(strings.TrimSpace(code)),
				Language: lang,
			}
			if err := store.Upsert(cmd.Context(), sender); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s with code %s\n", sender.Address, sender.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Short code used in staged filenames (required)")
	cmd.Flags().StringVar(&lang, "language", "", "Report language preference, e.g. en or fr")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newSendersRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <address>",
		Short: "Remove a sender from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
