package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var vetoCmd = &cobra.Command{
	Use:     "veto <id>",
	Short:   "Veto a listening proposal",
	GroupID: "proposals",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		reason, _ := cmd.Flags().GetString("reason")

		req := &client.DecisionRequest{
			Actor:     actor,
			Reason:    reason,
			Channel:   "cli",
			Mechanism: "qd",
		}

		p, err := quorumClient.VetoProposal(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("vetoing proposal %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(p)
		} else {
			fmt.Printf("proposal %s vetoed (%s)\n", p.CaseNumber, p.ID)
		}
		return nil
	},
}

func init() {
	vetoCmd.Flags().StringP("reason", "r", "", "justification recorded in the audit trail (required)")
	vetoCmd.MarkFlagRequired("reason")
}
