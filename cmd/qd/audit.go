package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:     "audit <id>",
	Short:   "Show the audit trail of a proposal",
	GroupID: "proposals",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		events, err := quorumClient.ListAuditEvents(context.Background(), id)
		if err != nil {
			return fmt.Errorf("listing audit events for %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(events)
		} else {
			printAuditTable(events)
		}
		return nil
	},
}
