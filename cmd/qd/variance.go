package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var varianceCmd = &cobra.Command{
	Use:     "variance <proposal-id>",
	Short:   "Show variance data and milestones for a proposal",
	GroupID: "variance",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		snap, err := quorumClient.GetVarianceData(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting variance data for %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(snap)
			return nil
		}

		if snap == nil || snap.Record == nil {
			fmt.Println("no budget recorded")
			return nil
		}
		printVarianceTable(snap.Record)
		if len(snap.Milestones) > 0 {
			fmt.Println()
			fmt.Println("Milestones:")
			printMilestoneTable(snap.Milestones)
		}
		return nil
	},
}
