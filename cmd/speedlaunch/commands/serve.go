package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livetemplate/speedlaunch/internal/clipboard"
	"github.com/livetemplate/speedlaunch/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shutdownTimeout bounds graceful shutdown after an interrupt.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	port        int
	host        string
	watch       bool
	noClipboard bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "Serve the guide on a local web page",
		Long: `Starts a local server for the speed-launch guide. Progress is saved to the
store configured in speedlaunch.yaml (or selected by the guide's "persist"
frontmatter) and pushed live to every open tab.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runServe(cmd, root, opts, dir)
		},
	}
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on (default from config: 8080)")
	cmd.Flags().StringVar(&opts.host, "host", "", "host to bind (default from config: localhost)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the guide when its file changes")
	cmd.Flags().BoolVar(&opts.noClipboard, "no-clipboard", false, "disable writing prompts to the system clipboard")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions, dir string) error {
	logger := root.logger
	p, err := root.loadProject(dir)
	if err != nil {
		return err
	}
	defer p.close()

	// CLI flags override config
	if cmd.Flags().Changed("port") {
		p.cfg.Server.Port = opts.port
	}
	if cmd.Flags().Changed("host") {
		p.cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("watch") {
		p.cfg.Features.HotReload = opts.watch
	}
	if err := p.cfg.Validate(); err != nil {
		return err
	}

	var cb clipboard.Service = clipboard.System{}
	if opts.noClipboard {
		cb = clipboard.Unavailable{}
	}
	store := p.newStore(logger, cb)
	defer store.Close()

	srv, err := server.New(p.guide, store,
		server.WithConfig(p.cfg),
		server.WithLogger(logger),
		server.WithGuidePath(p.guidePath),
	)
	if err != nil {
		return err
	}
	defer srv.Close()

	if p.cfg.Features.HotReload && p.guidePath == "" {
		logger.Warn("watch mode needs a guide file; serving the built-in guide without reload")
	} else if p.cfg.Features.HotReload {
		if err := srv.EnableWatch(); err != nil {
			return fmt.Errorf("failed to enable watch mode: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, limiterDone := srv.Handler(ctx)
	httpSrv := &http.Server{
		Addr:              p.cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🚀 %s\n\n", p.guide.Title)
	if p.guidePath != "" {
		fmt.Fprintf(out, "Guide: %s\n", p.guidePath)
	}
	fmt.Fprintf(out, "Storage: %s\n", p.storageConfig().GetBackend())
	fmt.Fprintf(out, "\n🌐 Server running at http://%s\n", httpSrv.Addr)
	if p.cfg.Features.HotReload && p.guidePath != "" {
		fmt.Fprintf(out, "👀 Watch mode enabled - edit the guide and the page reloads\n")
	}
	fmt.Fprintf(out, "Press Ctrl+C to stop\n\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	<-limiterDone
	return nil
}
