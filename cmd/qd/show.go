package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show details of a proposal",
	GroupID: "proposals",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		p, err := quorumClient.GetProposal(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting proposal %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(p)
		} else {
			printProposalTable(p)
		}
		return nil
	},
}
