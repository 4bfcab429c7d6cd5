package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinelops/triage/pkg/client"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Review alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertGetCmd())
	cmd.AddCommand(newAlertResolveCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var threatType, entityID, outcome string
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Alerts().List(context.Background(), &client.AlertListOptions{
				ThreatType:    threatType,
				EntityID:      entityID,
				Outcome:       outcome,
				MinConfidence: minConfidence,
			})
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(page.Data)
			}

			t := NewTable("ID", "THREAT", "ENTITY", "CONFIDENCE", "RADIUS", "OUTCOME")
			for _, a := range page.Data {
				t.AddRow(
					truncate(a.ID, 12),
					a.ThreatType,
					a.EntityID,
					fmt.Sprintf("%.0f", a.Confidence),
					a.BlastRadius,
					a.Outcome,
				)
			}
			t.Render()
			fmt.Printf("\n%d alerts total\n", page.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&threatType, "threat-type", "", "filter by threat type")
	cmd.Flags().StringVar(&entityID, "entity", "", "filter by entity")
	cmd.Flags().StringVar(&outcome, "outcome", "", "filter by outcome")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "minimum confidence")

	return cmd
}

func newAlertGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one alert with its signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().Get(context.Background(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(a)
			}

			fmt.Printf("Alert %s\n", a.ID)
			fmt.Printf("  Threat:      %s\n", a.ThreatType)
			fmt.Printf("  Entity:      %s (%s)\n", a.EntityID, a.EntityKind)
			fmt.Printf("  Confidence:  %.0f\n", a.Confidence)
			fmt.Printf("  Radius:      %s\n", a.BlastRadius)
			fmt.Printf("  Outcome:     %s\n", a.Outcome)
			fmt.Println("  Signals:")
			for _, s := range a.Signals {
				fmt.Printf("    %-32s %+.0f\n", s.Name, s.Weight)
			}
			return nil
		},
	}
}

func newAlertResolveCmd() *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Record the review outcome for an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Alerts().Resolve(context.Background(), args[0], outcome); err != nil {
				return err
			}
			fmt.Printf("Alert %s resolved as %s\n", args[0], outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "true_positive or false_positive")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}
