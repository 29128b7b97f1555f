package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:     "plan <proposal-id> <total>",
	Short:   "Record the planned total for a proposal",
	GroupID: "variance",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		total, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid total %q: %w", args[1], err)
		}

		notes, _ := cmd.Flags().GetString("notes")
		fieldPairs, _ := cmd.Flags().GetStringArray("field")
		metrics, err := parseFields(fieldPairs)
		if err != nil {
			return err
		}

		req := &client.UpdateVarianceRequest{
			UpdatedBy:      actor,
			PlannedTotal:   &total,
			PlannedMetrics: metrics,
			Channel:        "cli",
			Mechanism:      "qd",
		}
		if notes != "" {
			req.PlannedNotes = &notes
		}

		v, err := quorumClient.UpdateVariance(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("recording plan for %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(v)
		} else {
			printVarianceTable(v)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().String("notes", "", "planning notes")
	planCmd.Flags().StringArrayP("field", "f", nil, "planned metric (key=value, repeatable)")
}
