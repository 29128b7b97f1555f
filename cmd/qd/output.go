package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/quorum/internal/model"
	"github.com/alfredjeanlab/quorum/internal/ui"
)

func renderStatus(s string) string {
	if !ui.ShouldUseColor() {
		return s
	}
	return ui.RenderStatus(s)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printProposalTable(p *model.Proposal) {
	fmt.Printf("ID:           %s\n", p.ID)
	fmt.Printf("Case Number:  %s\n", p.CaseNumber)
	fmt.Printf("Stencil:      %s\n", p.StencilID)
	fmt.Printf("Circle:       %s\n", p.CircleID)
	fmt.Printf("Status:       %s\n", renderStatus(p.Status.String()))
	fmt.Printf("Submitted By: %s\n", p.SubmittedBy)
	if p.ApprovedBy != "" {
		fmt.Printf("Approved By:  %s\n", p.ApprovedBy)
		if p.ApprovedAt != nil {
			fmt.Printf("Approved At:  %s\n", p.ApprovedAt.Format("2006-01-02 15:04:05"))
		}
	}
	if p.VetoedBy != "" {
		fmt.Printf("Vetoed By:    %s\n", p.VetoedBy)
		if p.VetoReason != "" {
			fmt.Printf("Veto Reason:  %s\n", p.VetoReason)
		}
		if p.VetoedAt != nil {
			fmt.Printf("Vetoed At:    %s\n", p.VetoedAt.Format("2006-01-02 15:04:05"))
		}
	}
	if len(p.Data) > 0 {
		fmt.Printf("Data:         %s\n", string(p.Data))
	}
	fmt.Printf("Created At:   %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:   %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printProposalListTable(proposals []*model.Proposal, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSTATUS\tSTENCIL\tCIRCLE\tSUBMITTED BY")
	for _, p := range proposals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.CaseNumber,
			renderStatus(p.Status.String()),
			p.StencilID,
			p.CircleID,
			p.SubmittedBy,
		)
	}
	w.Flush()
	fmt.Printf("\n%d proposals (%d total)\n", len(proposals), total)
}

func printAuditTable(events []*model.AuditEvent) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tWHO\tWHAT\tWHERE\tHOW\tWHY")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Who,
			e.What,
			e.Where,
			e.How,
			e.Why,
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(events))
}

func printVarianceTable(v *model.VarianceRecord) {
	fmt.Printf("ID:            %s\n", v.ID)
	fmt.Printf("Case Number:   %s\n", v.CaseNumber)
	fmt.Printf("Budgeted:      %.2f (by %s at %s)\n", v.BudgetedTotal, v.BudgetedBy, v.BudgetedAt.Format("2006-01-02"))
	if v.PlannedTotal != nil {
		fmt.Printf("Planned:       %.2f\n", *v.PlannedTotal)
	}
	if v.ActualTotal != nil {
		fmt.Printf("Actual:        %.2f (reviews: %d)\n", *v.ActualTotal, v.ActualReviewCount)
	}
	if v.VariancePct != nil {
		fmt.Printf("Variance:      %+.2f%% (%s)\n", *v.VariancePct, renderStatus(v.VarianceStatus.String()))
	}
	if v.VarianceReason != "" {
		fmt.Printf("Reason:        %s\n", v.VarianceReason)
	}
}

func printMilestoneTable(milestones []*model.Milestone) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tSCHEDULED\tACTUAL\tVARIANCE")
	for _, m := range milestones {
		actual := "-"
		if m.ActualDate != nil {
			actual = m.ActualDate.Format("2006-01-02")
		}
		variance := "-"
		if m.VariancePctToDate != nil {
			variance = fmt.Sprintf("%+.2f%%", *m.VariancePctToDate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.Key,
			m.Label,
			m.ScheduledDate.Format("2006-01-02"),
			actual,
			variance,
		)
	}
	w.Flush()
}
