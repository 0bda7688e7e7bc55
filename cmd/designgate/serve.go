package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var (
		transport string
		host      string
		port      int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the design-standards operations over MCP and REST",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transport != "http" && transport != "stdio" {
				return fmt.Errorf("unknown transport %q (want http or stdio)", transport)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := c.start(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if host != "" {
				svc.cfg.Server.Host = host
			}
			if port != 0 {
				svc.cfg.Server.Port = port
			}
			svc.log.Info().
				Str("version", version).
				Str("provider", svc.cfg.LLM.Provider).
				Str("model", svc.cfg.LLM.Model).
				Str("upstream", svc.cfg.Upstream.ServerName).
				Str("upstream_transport", svc.cfg.Upstream.Transport).
				Str("upstream_url", svc.cfg.Upstream.URL).
				Str("transport", transport).
				Str("addr", svc.cfg.Server.Addr()).
				Msg("starting designgate")

			if transport == "stdio" {
				return svc.ctr.MCPServer().RunStdio(ctx)
			}

			handler := otelhttp.NewHandler(buildMux(svc.ctr.Gateway(), svc.ctr.MCPServer().Handler()), "designgate")
			srv := &http.Server{Addr: svc.cfg.Server.Addr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			err = g.Wait()
			svc.log.Info().Msg("designgate stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "http", "inbound transport: http or stdio")
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides MCP_SERVER_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides MCP_SERVER_PORT)")
	return cmd
}
