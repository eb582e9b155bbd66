package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flightsurety/internal/surety"
	"flightsurety/internal/surety/scenario"
)

func (c *cli) newApplyCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "apply <scenario.yaml>",
		Short: "Run a scenario file against a fresh in-memory registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			report, err := scenario.Run(cmd.Context(), sc, surety.WithLogger(c.logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "STEP\tOP\tEXPECT\tGOT\tHEIGHT\tRESULT\n")
				for _, s := range report.Steps {
					result := "pass"
					if !s.Passed {
						result = "FAIL"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", s.Name, s.Kind, s.Expect, s.Got, s.Height, result)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s: %d steps, final height %d\n", report.Scenario, len(report.Steps), report.Height)
			}

			if failed := report.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d steps did not match their expectation", failed, len(report.Steps))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")
	return cmd
}
