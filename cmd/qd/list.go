package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List proposals",
	GroupID: "proposals",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetStringSlice("status")
		circleID, _ := cmd.Flags().GetString("circle")
		stencilID, _ := cmd.Flags().GetString("stencil")
		submittedBy, _ := cmd.Flags().GetString("submitted-by")
		sortBy, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		req := &client.ListProposalsRequest{
			Status:      status,
			CircleID:    circleID,
			StencilID:   stencilID,
			SubmittedBy: submittedBy,
			Sort:        sortBy,
			Limit:       limit,
			Offset:      offset,
		}

		resp, err := quorumClient.ListProposals(context.Background(), req)
		if err != nil {
			return fmt.Errorf("listing proposals: %w", err)
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printProposalListTable(resp.Proposals, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceP("status", "s", nil, "filter by status (repeatable)")
	listCmd.Flags().StringP("circle", "c", "", "filter by circle")
	listCmd.Flags().String("stencil", "", "filter by stencil")
	listCmd.Flags().String("submitted-by", "", "filter by submitter")
	listCmd.Flags().String("sort", "", "sort order (e.g. case_number, -created_at)")
	listCmd.Flags().Int("limit", 20, "maximum number of proposals to return")
	listCmd.Flags().Int("offset", 0, "offset for pagination")
}
