package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show triage engine summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if getOutputFormat() != "table" {
				summary := map[string]interface{}{}
				if alerts, err := apiClient.Alerts().Summary(ctx); err == nil {
					summary["alerts"] = alerts
				}
				if actions, err := apiClient.Actions().Summary(ctx); err == nil {
					summary["actions"] = actions
				}
				if state, err := apiClient.Breaker().Get(ctx); err == nil {
					summary["breaker"] = state
				}
				return printOutput(summary)
			}

			fmt.Println("Triage Engine")
			fmt.Println(strings.Repeat("=", 40))

			if alerts, err := apiClient.Alerts().Summary(ctx); err != nil {
				fmt.Printf("  Alerts:   (error: %v)\n", err)
			} else {
				total := 0
				for _, n := range alerts {
					total += n
				}
				fmt.Printf("  Alerts:   %d total, %d unresolved\n", total, alerts["unknown"])
			}

			if actions, err := apiClient.Actions().Summary(ctx); err != nil {
				fmt.Printf("  Actions:  (error: %v)\n", err)
			} else {
				fmt.Printf("  Actions:  %d executed, %d escalated awaiting review\n",
					actions["executed"], actions["escalated"])
			}

			if state, err := apiClient.Breaker().Get(ctx); err != nil {
				fmt.Printf("  Breaker:  (error: %v)\n", err)
			} else if state.Tripped {
				fmt.Printf("  Breaker:  TRIPPED (%s)\n", state.Reason)
			} else {
				fmt.Println("  Breaker:  closed")
			}

			return nil
		},
	}
}
