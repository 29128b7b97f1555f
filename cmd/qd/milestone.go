package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/spf13/cobra"
)

var milestoneCmd = &cobra.Command{
	Use:     "milestone",
	Short:   "Manage milestone checkpoints",
	GroupID: "variance",
}

var milestoneAddCmd = &cobra.Command{
	Use:   "add <proposal-id> <key> <label>",
	Short: "Add a milestone checkpoint to a proposal",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		proposalID, key, label := args[0], args[1], args[2]

		dateStr, _ := cmd.Flags().GetString("date")
		scheduled, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", dateStr)
		}

		notes, _ := cmd.Flags().GetString("notes")

		req := &client.CreateMilestoneRequest{
			Key:           key,
			Label:         label,
			ScheduledDate: scheduled,
			Notes:         notes,
			CreatedBy:     actor,
			Channel:       "cli",
			Mechanism:     "qd",
		}
		if cmd.Flags().Changed("budget") {
			budget, _ := cmd.Flags().GetFloat64("budget")
			req.BudgetToDate = &budget
		}

		m, err := quorumClient.CreateMilestone(context.Background(), proposalID, req)
		if err != nil {
			return fmt.Errorf("creating milestone: %w", err)
		}

		if jsonOutput {
			printJSON(m)
		} else {
			fmt.Printf("milestone %s added (%s)\n", m.Key, m.ID)
		}
		return nil
	},
}

var milestoneUpdateCmd = &cobra.Command{
	Use:   "update <milestone-id>",
	Short: "Update a milestone checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		req := &client.UpdateMilestoneRequest{
			UpdatedBy: actor,
			Channel:   "cli",
			Mechanism: "qd",
		}

		if cmd.Flags().Changed("actual-date") {
			dateStr, _ := cmd.Flags().GetString("actual-date")
			actualDate, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", dateStr)
			}
			req.ActualDate = &actualDate
		}
		if cmd.Flags().Changed("budget") {
			budget, _ := cmd.Flags().GetFloat64("budget")
			req.BudgetToDate = &budget
		}
		if cmd.Flags().Changed("actual") {
			actualStr, _ := cmd.Flags().GetString("actual")
			actual, err := strconv.ParseFloat(actualStr, 64)
			if err != nil {
				return fmt.Errorf("invalid actual %q: %w", actualStr, err)
			}
			req.ActualToDate = &actual
		}
		if cmd.Flags().Changed("notes") {
			notes, _ := cmd.Flags().GetString("notes")
			req.Notes = &notes
		}
		if reviewed, _ := cmd.Flags().GetBool("reviewed"); reviewed {
			req.ReviewedBy = actor
		}

		m, err := quorumClient.UpdateMilestone(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("updating milestone %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(m)
		} else {
			fmt.Printf("milestone %s updated\n", m.Key)
			if m.VariancePctToDate != nil {
				fmt.Printf("variance to date: %+.2f%%\n", *m.VariancePctToDate)
			}
		}
		return nil
	},
}

func init() {
	milestoneAddCmd.Flags().String("date", "", "scheduled date (YYYY-MM-DD, required)")
	milestoneAddCmd.Flags().Float64("budget", 0, "budget to date")
	milestoneAddCmd.Flags().String("notes", "", "milestone notes")
	milestoneAddCmd.MarkFlagRequired("date")

	milestoneUpdateCmd.Flags().String("actual-date", "", "actual completion date (YYYY-MM-DD)")
	milestoneUpdateCmd.Flags().Float64("budget", 0, "budget to date")
	milestoneUpdateCmd.Flags().String("actual", "", "actual spend to date")
	milestoneUpdateCmd.Flags().String("notes", "", "milestone notes")
	milestoneUpdateCmd.Flags().Bool("reviewed", false, "mark the milestone as reviewed by you")

	milestoneCmd.AddCommand(milestoneAddCmd)
	milestoneCmd.AddCommand(milestoneUpdateCmd)
}
