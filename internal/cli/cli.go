// Package cli implements the depscope command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/buildinfo"
	"github.com/depscope/depscope/pkg/cache"
	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/extract"
	"github.com/depscope/depscope/pkg/extract/python"
	"github.com/depscope/depscope/pkg/extract/terraform"
)

const (
	// appName is the application name used for directories and display.
	appName = "depscope"

	// configFile is the optional per-project configuration file name.
	configFile = ".depscope.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "depscope",
		Short:        "Depscope maps dependency graphs inside source trees",
		Long:         `Depscope statically extracts inter-artifact references from a source tree, assembles the dependency graph, and reports cycles, central artifacts, and per-artifact closures.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.summaryCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// registry returns the extraction strategies shipped with the CLI.
func registry() *extract.Registry {
	return extract.NewRegistry(python.New(), terraform.New())
}

// newEngine creates an engine for CLI use. redisAddr selects the Redis
// backend; otherwise a file cache under the XDG cache dir is used, and
// noCache disables memoization entirely.
func (c *CLI) newEngine(cmd *cobra.Command, noCache bool, redisAddr string) (*engine.Engine, error) {
	store, err := newCache(cmd, noCache, redisAddr)
	if err != nil {
		return nil, err
	}
	return engine.New(registry(), store, c.Logger), nil
}

func newCache(cmd *cobra.Command, noCache bool, redisAddr string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(cmd.Context(), redisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depscope/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
