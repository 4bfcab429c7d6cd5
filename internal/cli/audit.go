package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinelops/triage/pkg/client"
)

func newAuditCmd() *cobra.Command {
	var actionID, actor, decision string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Browse the decision audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Audit().List(context.Background(), &client.AuditListOptions{
				ActionID: actionID,
				Actor:    actor,
				Decision: decision,
			})
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("TIME", "ACTION", "DECISION", "ACTOR", "RATIONALE")
			for _, rec := range page.Data {
				t.AddRow(
					rec.CreatedAt.Format(time.RFC3339),
					truncate(rec.ActionID, 12),
					rec.Decision,
					rec.Actor,
					truncate(rec.Rationale, 60),
				)
			}
			t.Render()
			fmt.Printf("\n%d records total\n", page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&actionID, "action", "", "filter by action ID")
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor")
	cmd.Flags().StringVar(&decision, "decision", "", "filter by decision")

	return cmd
}
