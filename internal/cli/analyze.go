package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/graph"
)

// analyzeOpts holds the command-line flags shared by the commands that
// run a full analysis.
type analyzeOpts struct {
	family  string   // artifact family to analyze
	workers int      // extraction worker count (0 = NumCPU)
	exclude []string // glob patterns to skip
	refresh bool     // bypass cache reads
	noCache bool     // disable the cache entirely
	redis   string   // Redis address for the shared cache backend
}

// registerFlags wires the shared analysis flags onto cmd.
func (o *analyzeOpts) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.family, "family", "f", "", "artifact family (python, terraform)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "extraction workers (default: number of CPUs)")
	cmd.Flags().StringArrayVar(&o.exclude, "exclude", nil, "glob pattern to skip (repeatable)")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "bypass cached results")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().StringVar(&o.redis, "redis", "", "redis address for a shared cache (host:port)")
}

// run executes an analysis of root with the merged project config.
func (o *analyzeOpts) run(c *CLI, cmd *cobra.Command, root string) (*engine.Engine, *engine.Result, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, nil, err
	}
	o.mergeConfig(cfg)
	if o.family == "" {
		return nil, nil, fmt.Errorf("no artifact family given (use --family or set it in %s)", configFile)
	}

	eng, err := c.newEngine(cmd, o.noCache, o.redis)
	if err != nil {
		return nil, nil, err
	}

	logger := loggerFromContext(cmd.Context())
	logger.Debugf("analyzing %s (family %s)", root, o.family)

	prog := newProgress(logger)
	res, err := eng.Analyze(cmd.Context(), root, graph.Family(o.family), engine.Options{
		Workers: o.workers,
		Refresh: o.refresh,
		Exclude: o.exclude,
	})
	if err != nil {
		return nil, nil, err
	}
	prog.done(fmt.Sprintf("Resolved %d artifacts with %d references", res.Graph.NodeCount(), res.Graph.EdgeCount()))
	return eng, res, nil
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		opts   analyzeOpts
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "analyze <root>",
		Short: "Analyze a source tree and export its dependency graph",
		Long: `Analyze scans a source tree, extracts inter-artifact references for
the selected family, and exports the assembled graph.

Examples:
  depscope analyze ./src --family python
  depscope analyze ./infra --family terraform --format dot
  depscope analyze . -f python --format svg -o graph.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			spin := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Analyzing %s", root))
			spin.Start()
			eng, res, err := opts.run(c, cmd, root)
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Analysis failed: %v", err))
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Analyzed %d artifacts", res.Graph.NodeCount()))
			printStats(res.Graph.NodeCount(), res.Graph.EdgeCount(), res.Cached)
			reportWarnings(res)

			data, err := eng.Export(cmd.Context(), res, format)
			if err != nil {
				return err
			}
			if err := writeOutput(data, output); err != nil {
				return err
			}
			if output != "" {
				printFile(output)
			}
			if len(res.Analysis.Cycles) > 0 {
				printWarning("%d dependency cycle(s) detected", len(res.Analysis.Cycles))
				printNextStep("Inspect cycles", fmt.Sprintf("depscope summary %s -f %s", root, opts.family))
			}
			return nil
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "export format (json, dot, svg, graphml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// reportWarnings prints collected warnings, capped to keep noisy trees
// readable.
func reportWarnings(res *engine.Result) {
	const maxShown = 10
	for i, w := range res.Warnings {
		if i == maxShown {
			printDetail("... and %d more warnings", len(res.Warnings)-maxShown)
			return
		}
		printWarning("%s", w.String())
	}
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, or stdout when
// path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func writeOutput(data []byte, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}
