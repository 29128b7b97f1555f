package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var actualCmd = &cobra.Command{
	Use:     "actual <proposal-id> <total>",
	Short:   "Record actual spend and recompute variance",
	GroupID: "variance",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		total, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid total %q: %w", args[1], err)
		}

		reason, _ := cmd.Flags().GetString("reason")
		fieldPairs, _ := cmd.Flags().GetStringArray("field")
		breakdown, err := parseFields(fieldPairs)
		if err != nil {
			return err
		}

		req := &client.UpdateVarianceRequest{
			UpdatedBy:       actor,
			ActualTotal:     &total,
			ActualBreakdown: breakdown,
			Channel:         "cli",
			Mechanism:       "qd",
		}
		if reason != "" {
			req.VarianceReason = &reason
		}

		v, err := quorumClient.UpdateVariance(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("recording actuals for %s: %w", id, err)
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
	actualCmd.Flags().StringP("reason", "r", "", "explanation for the variance")
	actualCmd.Flags().StringArrayP("field", "f", nil, "actual breakdown line (key=value, repeatable)")
}
