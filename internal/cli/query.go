package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/export"
)

// queryCommand creates the query command with deps/dependents subcommands.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		opts       analyzeOpts
		transitive bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query dependencies or dependents of one artifact",
		Long: `Query looks up the direct or transitive neighborhood of a single
artifact. The target is either a source tree (analyzed on the fly) or a
previously exported JSON document.

Examples:
  depscope query deps ./src app.db -f python
  depscope query deps graph.json app.db --transitive
  depscope query dependents ./infra aws_vpc.main -f terraform`,
	}

	cmd.PersistentFlags().BoolVarP(&transitive, "transitive", "t", false, "include the full closure")
	opts.registerFlags(cmd)

	deps := &cobra.Command{
		Use:   "deps <tree-or-export> <artifact>",
		Short: "List the artifacts one artifact depends on",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, res, err := c.resultFor(cmd, &opts, args[0])
			if err != nil {
				return err
			}
			ids, err := eng.Dependencies(res, args[1], transitive)
			if err != nil {
				return err
			}
			return printIDs(args[1], "depends on", ids)
		},
	}

	dependents := &cobra.Command{
		Use:   "dependents <tree-or-export> <artifact>",
		Short: "List the artifacts depending on one artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, res, err := c.resultFor(cmd, &opts, args[0])
			if err != nil {
				return err
			}
			ids, err := eng.Dependents(res, args[1], transitive)
			if err != nil {
				return err
			}
			return printIDs(args[1], "is depended on by", ids)
		},
	}

	cmd.AddCommand(deps)
	cmd.AddCommand(dependents)
	return cmd
}

// resultFor produces an analysis result from either a source tree or an
// exported JSON file, detected by what the path points at.
func (c *CLI) resultFor(cmd *cobra.Command, opts *analyzeOpts, target string) (*engine.Engine, *engine.Result, error) {
	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		f, err := os.Open(target)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()

		doc, err := export.ReadJSON(f)
		if err != nil {
			return nil, nil, fmt.Errorf("read export %s: %w", target, err)
		}
		res, err := engine.FromDocument(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("load export %s: %w", target, err)
		}
		eng, err := c.newEngine(cmd, true, "")
		if err != nil {
			return nil, nil, err
		}
		return eng, res, nil
	}
	return opts.run(c, cmd, target)
}

func printIDs(id, relation string, ids []string) error {
	if len(ids) == 0 {
		printInfo("%s %s nothing", id, relation)
		return nil
	}
	printKeyValue(id, fmt.Sprintf("%s %d artifact(s)", relation, len(ids)))
	for _, dep := range ids {
		printDetail("%s", dep)
	}
	return nil
}
