package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional per-project configuration, read from
// .depscope.toml in the analysis root. Flags override config values.
//
// Example:
//
//	family = "python"
//	workers = 8
//	exclude = ["*_test.py", "migrations/*"]
//	no_cache = false
type Config struct {
	Family  string   `toml:"family"`
	Workers int      `toml:"workers"`
	Exclude []string `toml:"exclude"`
	NoCache bool     `toml:"no_cache"`
}

// loadConfig reads the project config from root. A missing file returns
// a zero config; a malformed file is an error since silently ignoring a
// typo would be worse.
func loadConfig(root string) (Config, error) {
	var cfg Config
	path := filepath.Join(root, configFile)
	meta, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// mergeConfig fills unset analyze options from the project config.
func (o *analyzeOpts) mergeConfig(cfg Config) {
	if o.family == "" {
		o.family = cfg.Family
	}
	if o.workers == 0 {
		o.workers = cfg.Workers
	}
	if len(o.exclude) == 0 {
		o.exclude = cfg.Exclude
	}
	if !o.noCache {
		o.noCache = cfg.NoCache
	}
}
