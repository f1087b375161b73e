// Package cli implements the zplkit command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/buildinfo"
	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/config"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/pipeline"
	"github.com/matzehuels/zplkit/pkg/preview"
	"github.com/matzehuels/zplkit/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "zplkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath selects the config file. Empty reads the default location.
	ConfigPath string

	cfg    *config.Config
	prompt prompter
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
		Use:          appName,
		Short:        "zplkit compiles label designs into ZPL",
		Long:         `zplkit turns label documents and industry templates into ZPL programs for Zebra printers, with optimized, templated and JavaScript exports and PNG previews.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "config file (default $XDG_CONFIG_HOME/zplkit/config.toml)")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.templatizeCommand())
	root.AddCommand(c.fillCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.samplesCommand())
	root.AddCommand(c.docCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, unknown, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	for _, key := range unknown {
		c.Logger.Warn("unknown config key", "key", key)
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller closes it.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}
	cacheOpts := cfg.CacheOptions()
	if noCache {
		cacheOpts.Backend = cache.BackendNone
	}
	pc, err := cache.Open(ctx, cacheOpts)
	if err != nil {
		c.Logger.Warn("preview cache unavailable", "backend", cacheOpts.Backend, "err", err)
		pc = cache.NewNullCache()
	}
	client := preview.NewClient(cfg.PreviewOptions()...)
	return pipeline.NewRunner(reg, client, pc, nil, c.Logger), nil
}

// loadRegistry merges the configured template directory over the built-in
// catalog.
func loadRegistry(cfg config.Config) (*catalog.Registry, error) {
	if cfg.Catalog.Dir == "" {
		return catalog.Default()
	}
	return catalog.Load(catalog.Embedded(), os.DirFS(cfg.Catalog.Dir))
}

// openStore opens the configured document store. The caller closes it.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.StoreOptions())
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: the configured one, or the XDG
// cache directory (~/.cache/zplkit/).
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// profileFlags holds the --resolution and --size flags.
type profileFlags struct {
	resolution string
	size       string
}

func (p *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.resolution, "resolution", "", "print resolution: 6dpmm, 8dpmm, 12dpmm, 24dpmm")
	cmd.Flags().StringVar(&p.size, "size", "", "label size in inches: 4x6, 3x2, 2x1")
}

// profile applies the flags over base.
func (p profileFlags) profile(base label.Profile) label.Profile {
	if p.resolution != "" {
		base.Resolution = label.Resolution(p.resolution)
	}
	if p.size != "" {
		base.Size = label.Size(p.size)
	}
	return base
}

// parseFormats parses comma-separated format flags into a flat slice.
func parseFormats(values []string) []string {
	var out []string
	for _, v := range values {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	if len(out) == 0 {
		return []string{pipeline.DefaultFormat}
	}
	return out
}
