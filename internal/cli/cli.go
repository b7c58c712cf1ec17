package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowlens"

	// samplePrefix marks a flow reference as a catalog sample.
	samplePrefix = "sample:"
)

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

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowlens visualizes Studio-style flow definitions",
		Long: `Flowlens turns flow definitions (states connected by event transitions)
into positioned node/edge diagrams, renders them with Graphviz, and keeps
edited flows in a local or shared store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowlens/config.toml)")

	// Flows
	root.AddCommand(c.importCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.overwriteCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.samplesCommand())

	// Visualization
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())

	// Housekeeping
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	registerHooks(c.Logger)
	c.Logger.Debug("loaded config", "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// openStore opens the configured flow store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, c.cfg.StoreOptions())
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, keyer, c.Logger)
	r.TTL = c.cfg.Cache.TTL.Duration
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.cfg.Cache.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		var keyer cache.Keyer
		if c.cfg.Cache.RedisPrefix != "" {
			keyer = cache.NewScopedKeyer(nil, c.cfg.Cache.RedisPrefix)
		}
		return rc, keyer, nil
	}
	dir, err := c.cfg.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

// pipelineOptions returns transform options from the [layout] section.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{AutoLayout: c.cfg.Layout.Auto, Layout: c.cfg.Layout.Options}
}

// session bundles what flow commands need. close releases everything.
type session struct {
	store  store.Store
	runner *pipeline.Runner
	ws     *workspace.Workspace
}

func (s *session) close() {
	s.runner.Close()
	s.store.Close()
}

func (c *CLI) openSession(ctx context.Context, noCache bool) (*session, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		st.Close()
		return nil, err
	}
	ws := workspace.New(st, runner, c.Logger)
	ws.SetOptions(c.pipelineOptions())
	return &session{store: st, runner: runner, ws: ws}, nil
}
