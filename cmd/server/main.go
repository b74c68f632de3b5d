package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/stagehand/internal/adapters/http"
	"github.com/dkeye/stagehand/internal/app"
	"github.com/dkeye/stagehand/internal/app/orch"
	"github.com/dkeye/stagehand/internal/config"
	"github.com/dkeye/stagehand/internal/metrics"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("stagehand failed")
		cancel()
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "Event relay between escape-room camera, control and navi clients.",
		Args:          cobra.ExactArgs(0),
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogger(cfg)
			return serve(cmd.Context(), cfg)
		},
	}
	config.BindFlags(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("stagehand v{{.Version}}\n")
	return cmd
}

func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	var gatherer prometheus.Gatherer
	var m *metrics.Metrics
	if cfg.Metrics {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(promReg)
		gatherer = promReg
	}

	policy, err := app.PolicyFromName(cfg.Backpressure)
	if err != nil {
		return err
	}
	o := orch.New(app.NewRegistry(), app.NewPhotoStore(), policy, m, orch.Options{
		ResetPhotosOnShooting: cfg.ResetPhotosOnShooting,
	})
	go o.Run(ctx)

	r := router.SetupRouter(ctx, cfg, o, gatherer, version)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.WithCORS(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("stagehand started")
		logJoinURLs(cfg)
		if err := srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func logJoinURLs(cfg *config.Config) {
	base := cfg.PublicURL
	if base == "" {
		host, ok := router.LocalIPv4()
		if !ok {
			log.Warn().Msg("no non-loopback IPv4 address found, set public_url to print join links")
			return
		}
		base = fmt.Sprintf("https://%s:%d", host, cfg.Port)
	}
	for _, name := range router.Bundles {
		log.Info().Str("client", name).Str("url", router.JoinURL(base, name)).Msg("join link")
	}
}
