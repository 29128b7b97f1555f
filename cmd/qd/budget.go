package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:     "budget <proposal-id> <total>",
	Short:   "Establish the budget baseline for a proposal",
	GroupID: "variance",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		total, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid total %q: %w", args[1], err)
		}

		fieldPairs, _ := cmd.Flags().GetStringArray("field")
		breakdown, err := parseFields(fieldPairs)
		if err != nil {
			return err
		}

		req := &client.CreateBudgetRequest{
			BudgetedTotal:     total,
			BudgetedBreakdown: breakdown,
			BudgetedBy:        actor,
			Channel:           "cli",
			Mechanism:         "qd",
		}

		v, err := quorumClient.CreateBudget(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("creating budget for %s: %w", id, err)
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
	budgetCmd.Flags().StringArrayP("field", "f", nil, "budget breakdown line (key=value, repeatable)")
}
