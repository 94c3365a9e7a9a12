// Package commands implements the speedlaunch CLI.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/livetemplate/speedlaunch"
	"github.com/livetemplate/speedlaunch/internal/clipboard"
	"github.com/livetemplate/speedlaunch/internal/config"
	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/livetemplate/speedlaunch/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	debug      bool
	configPath string
	guidePath  string
	logger     *zap.Logger
}

// NewRootCmd builds the speedlaunch command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "speedlaunch",
		Short: "AI Speed-Launch System: a 3-step guide to your first AI-assisted Etsy listing",
		Long: `speedlaunch hosts the AI Speed-Launch guide as a local web page and keeps
your progress (view mode, current step, completed steps and checked boxes)
in a local store so it survives restarts.

Run "speedlaunch serve" and open the printed address in a browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if opts.debug {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: speedlaunch.yaml in the project directory)")
	root.PersistentFlags().StringVarP(&opts.guidePath, "guide", "g", "", "guide markdown file (default: the built-in guide)")

	root.AddCommand(
		newServeCmd(opts),
		newStatusCmd(opts),
		newResetCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the speedlaunch version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "speedlaunch version %s\n", Version)
		},
	}
}

// project is the resolved configuration, guide and store for a directory.
type project struct {
	dir       string
	cfg       *config.Config
	guide     *speedlaunch.Guide
	guidePath string
	kv        storage.KV
}

// loadProject resolves config and guide for dir. The --guide flag wins over
// the config's guide path, which resolves against dir when relative.
func (o *rootOptions) loadProject(dir string) (*project, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	var cfg *config.Config
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadFromDir(absDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	guidePath := o.guidePath
	if guidePath == "" && cfg.Guide != "" {
		guidePath = cfg.Guide
		if !filepath.IsAbs(guidePath) {
			guidePath = filepath.Join(absDir, guidePath)
		}
	}

	guide, err := speedlaunch.Load(guidePath)
	if err != nil {
		return nil, err
	}

	return &project{dir: absDir, cfg: cfg, guide: guide, guidePath: guidePath}, nil
}

// storageConfig applies the guide's persist setting over the configured backend.
func (p *project) storageConfig() config.StorageConfig {
	sc := p.cfg.Storage
	if p.guide.Persist != "" && p.guide.Persist != sc.GetBackend() {
		sc = config.StorageConfig{Backend: p.guide.Persist, Table: sc.Table}
	}
	return sc
}

// openKV opens the project's store. A store that cannot be opened degrades
// to storage.Disabled: progress then lives in memory only.
func (p *project) openKV(logger *zap.Logger) storage.KV {
	sc := p.storageConfig()
	kv, err := storage.Open(sc, p.dir)
	if err != nil {
		logger.Warn("storage unavailable; progress will not be saved",
			zap.String("backend", sc.GetBackend()), zap.Error(err))
		kv = storage.NewDisabled()
	}
	p.kv = kv
	return kv
}

// newStore opens storage and returns an initialized Store.
func (p *project) newStore(logger *zap.Logger, cb clipboard.Service) *state.Store {
	s := state.New(p.openKV(logger),
		state.WithLogger(logger),
		state.WithClipboard(cb),
	)
	s.Initialize()
	return s
}

// close releases the store's storage.
func (p *project) close() error {
	if p.kv == nil {
		return nil
	}
	return p.kv.Close()
}
