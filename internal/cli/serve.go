package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codebender/eratosthenes/internal/config"
	"github.com/codebender/eratosthenes/internal/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the library listing HTTP API",
		Long: `Run the HTTP API used by the editor.

Routes:
  POST /v1/list   list a library ({"library": "Servo", "renderView": true})
  POST /v1        command dispatch ({"type": "list", "library": "Servo"})
  GET  /healthz   liveness check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

// runServe serves until ctx is canceled, then shuts down gracefully.
func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	b, err := c.openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.closeBackends(b)

	api := server.New(c.newService(cfg, b), c.Logger)
	srv := api.HTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("Listening", "addr", cfg.Server.Addr,
			"builtin", cfg.Libraries.Builtin, "external", cfg.Libraries.External)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		c.Logger.Info("Shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
