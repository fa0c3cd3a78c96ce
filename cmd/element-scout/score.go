package main

import (
	"element-scout/internal/config"
	"element-scout/internal/quality"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func scoreCmd() *cobra.Command {
	var (
		count  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "score <locator>",
		Short: "Score a locator offline for a given match count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.GetConfig()
			if err != nil {
				return err
			}

			ev := quality.NewEvaluator(zap.NewNop(), conf.DiscoveryConfig.MinQuality).
				Static(strings.Join(args, " "), count)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ev)
			}

			fmt.Fprintf(out, "Locator:  %s\n", ev.Locator)
			fmt.Fprintf(out, "Matches:  %d\n", ev.MatchCount)
			if ev.Rejection.Reject {
				fmt.Fprintf(out, "Rejected: %s\n", ev.Rejection.Reason)
			} else {
				fmt.Fprintf(out, "Overall:  %.2f (passes: %t)\n", ev.Metrics.Overall, ev.Passes)
			}
			for _, s := range ev.Suggestions {
				fmt.Fprintf(out, "  - %s\n", s)
			}

			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of elements the locator matches")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the evaluation as JSON")

	return cmd
}
