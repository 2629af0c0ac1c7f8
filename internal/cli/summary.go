package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// summaryCommand creates the summary command.
func (c *CLI) summaryCommand() *cobra.Command {
	var (
		opts    analyzeOpts
		topN    int
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "summary <root>",
		Short: "Print a condensed report of the analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, res, err := opts.run(c, cmd, args[0])
			if err != nil {
				return err
			}
			s := eng.Summarize(res, topN)

			if asJSON {
				data, err := eng.Export(cmd.Context(), res, "json")
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Dependency summary · %s", args[0])))
			printKeyValue("family", s.Family)
			printKeyValue("artifacts", fmt.Sprintf("%d", s.NodeCount))
			printKeyValue("edges", fmt.Sprintf("%d", s.EdgeCount))
			printKeyValue("external", fmt.Sprintf("%d", s.ExternalCount))

			if s.CycleCount == 0 {
				printSuccess("No dependency cycles")
			} else {
				printWarning("%d dependency cycle(s)", s.CycleCount)
				for _, cycle := range s.Cycles {
					printDetail("%s", strings.Join(cycle, " → "))
				}
			}

			if len(s.TopCentral) > 0 {
				fmt.Println()
				printInfo("Most central artifacts")
				for _, score := range s.TopCentral {
					printDetail("%-40s %.3f", score.ID, score.Score)
				}
			}

			if verbose {
				fmt.Println()
				printInfo("Per-artifact degrees")
				for _, d := range s.Degrees {
					printDetail("%-40s in:%-3d out:%d", d.ID, d.InDegree, d.OutDegree)
				}
			}
			reportWarnings(res)
			return nil
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().IntVar(&topN, "top", 5, "number of central artifacts to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full JSON document instead")
	cmd.Flags().BoolVar(&verbose, "degrees", false, "include the per-artifact degree table")
	return cmd
}
