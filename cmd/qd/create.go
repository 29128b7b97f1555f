package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create <stencil-id>",
	Short:   "Submit a new proposal",
	GroupID: "proposals",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stencilID := args[0]

		circleID, _ := cmd.Flags().GetString("circle")
		fieldPairs, _ := cmd.Flags().GetStringArray("field")
		dataJSON, err := parseFields(fieldPairs)
		if err != nil {
			return err
		}

		req := &client.CreateProposalRequest{
			StencilID:   stencilID,
			CircleID:    circleID,
			SubmittedBy: actor,
			Data:        dataJSON,
			Channel:     "cli",
			Mechanism:   "qd",
		}

		p, err := quorumClient.CreateProposal(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating proposal: %w", err)
		}

		if jsonOutput {
			printJSON(p)
		} else {
			printProposalTable(p)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("circle", "c", "", "circle the proposal belongs to")
	createCmd.Flags().StringArrayP("field", "f", nil, "proposal data field (key=value, repeatable)")
	createCmd.MarkFlagRequired("circle")
}
