package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelops/triage/pkg/client"
)

func newActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Approve, reject and roll back response actions",
	}

	cmd.AddCommand(newActionListCmd())
	cmd.AddCommand(newActionGetCmd())
	cmd.AddCommand(newActionApproveCmd())
	cmd.AddCommand(newActionRejectCmd())
	cmd.AddCommand(newActionRollbackCmd())

	return cmd
}

func newActionListCmd() *cobra.Command {
	var status, kind, entity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Actions().List(context.Background(), &client.ActionListOptions{
				Status:       status,
				Kind:         kind,
				TargetEntity: entity,
			})
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "KIND", "TARGET", "STATUS", "ACTOR", "REASON")
			for _, a := range page.Data {
				t.AddRow(
					truncate(a.ID, 12),
					a.Kind,
					a.TargetEntity,
					a.Status,
					a.Actor,
					truncate(a.Reason, 48),
				)
			}
			t.Render()
			fmt.Printf("\n%d actions total\n", page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (e.g. escalated)")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind")
	cmd.Flags().StringVar(&entity, "entity", "", "filter by target entity")

	return cmd
}

func newActionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Actions().Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printOutput(a)
		},
	}
}

func newActionApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Execute an escalated action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Actions().Approve(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Action %s approved and executed\n", args[0])
			return nil
		},
	}
}

func newActionRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Decline an escalated action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Actions().Reject(context.Background(), args[0], reason); err != nil {
				return err
			}
			fmt.Printf("Action %s rejected\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the action is declined")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newActionRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <id>",
		Short: "Reverse an executed action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Actions().Rollback(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Action %s rolled back\n", args[0])
			return nil
		},
	}
}
