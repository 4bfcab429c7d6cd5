package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBreakerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breaker",
		Short: "Inspect and operate the execution circuit breaker",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show breaker state and health ratios",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := apiClient.Breaker().Get(context.Background())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(state)
			}

			mode := "closed (automatic execution enabled)"
			if state.Tripped {
				mode = fmt.Sprintf("TRIPPED (%s)", state.Reason)
			}
			fmt.Printf("Breaker:              %s\n", mode)
			fmt.Printf("False-positive ratio: %.2f over %d resolutions\n", state.FalsePositiveRatio, state.ResolvedCount)
			fmt.Printf("Execution-error ratio: %.2f over %d attempts\n", state.ErrorRatio, state.AttemptCount)
			return nil
		},
	})

	var reason string
	trip := &cobra.Command{
		Use:   "trip",
		Short: "Disable automatic execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := apiClient.Breaker().Trip(context.Background(), reason)
			if err != nil {
				return err
			}
			fmt.Println("Circuit breaker tripped")
			return printOutput(state)
		},
	}
	trip.Flags().StringVar(&reason, "reason", "", "why execution is being disabled")
	_ = trip.MarkFlagRequired("reason")
	cmd.AddCommand(trip)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Re-enable automatic execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := apiClient.Breaker().Reset(context.Background())
			if err != nil {
				return err
			}
			fmt.Println("Circuit breaker reset")
			return printOutput(state)
		},
	})

	return cmd
}
