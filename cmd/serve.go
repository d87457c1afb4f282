package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/missionhq/internal/briefs"
	"github.com/abhisek/missionhq/internal/llm"
	"github.com/abhisek/missionhq/internal/observability"
	"github.com/abhisek/missionhq/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := observability.Setup(ctx, a.cfg.Otel, version, a.log)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			tctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace)
			defer cancel()
			if err := shutdownTracing(tctx); err != nil {
				a.log.Warn("tracing shutdown failed", "error", err)
			}
		}()

		provider, err := llm.NewProvider(ctx, a.cfg.LLM, a.store.EventRepo(), a.log)
		if err != nil {
			return fmt.Errorf("create llm provider: %w", err)
		}
		if provider == nil {
			a.log.Info("no llm provider configured, briefs use the offline template")
		}

		serviceName := ""
		if a.cfg.Otel.Enabled {
			serviceName = a.cfg.Otel.ServiceName
		}
		router := web.NewRouter(web.RouterConfig{
			Log:         a.log,
			ServiceName: serviceName,
			Ping:        func(ctx context.Context) error { return a.store.DB().PingContext(ctx) },
			Campaigns:   web.NewCampaignHandler(a.catalog),
			Cadets:      web.NewCadetHandler(a.catalog, a.tracker, a.wallet, a.store.EventRepo()),
			Shop:        web.NewShopHandler(a.wallet),
			QR:          web.NewQRHandler(a.confirm),
			Briefs:      web.NewBriefHandler(briefs.NewService(provider, briefs.DefaultConfig(), a.log)),
		})
		srv := web.NewServer(addr, router)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.log.Info("http server listening", "addr", addr, "version", version)
			return srv.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			a.log.Info("shutting down", "grace", a.cfg.ShutdownGrace)
			sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MISSIONHQ_ADDR)")
}
