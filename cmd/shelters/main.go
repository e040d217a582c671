package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	server "shelterfinder/internal/adapters/http_server"
	"shelterfinder/internal/adapters/naturstyrelsen"
	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/app"
	"shelterfinder/internal/domain"
	"shelterfinder/internal/shared"
	"shelterfinder/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("shelters failed")
		os.Exit(domain.ExitCode(err))
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shelters --start YYYY-MM-DD [--nights N] [--region NAME]...",
		Short:         "Find shelters on book.naturstyrelsen.dk that are free for a date range",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := shared.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout)
		},
	}
	shared.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg shared.Config, stdout io.Writer) error {
	// set global logger (console in dev, JSON otherwise), tagged per run
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("run_id", uuid.NewString()).Logger()

	client, err := naturstyrelsen.New(cfg.BaseURL, cfg.RPS, naturstyrelsen.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	var store domain.CatalogStore
	if !cfg.NoCache {
		s, err := storage.Open(cfg.CacheLocation)
		if err != nil {
			log.Warn().Err(err).Str("cache", cfg.CacheLocation).Msg("catalog cache unavailable; continuing without it")
		} else {
			store = s
			defer store.Close()
			log.Debug().Str("backend", storage.Backend(cfg.CacheLocation)).Str("cache", cfg.CacheLocation).Msg("catalog cache")
		}
	}
	// session cookies are seeded once, before the first network request
	warmUp := sync.OnceFunc(func() { client.WarmUp(ctx) })
	catalog := app.NewCatalogService(client, store)
	catalog.BeforeFetch = func(context.Context) { warmUp() }

	if cfg.ListRegions {
		return listRegions(ctx, catalog, cfg.RefreshCache, stdout)
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}
	if err := req.Validate(time.Now()); err != nil {
		return err
	}

	var progress *server.Progress
	if cfg.MetricsAddr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		progress = server.NewProgress()
		srv := server.New()
		reg := observability.InitRegistry()
		srv.Mount("/metrics", observability.MetricsHandler(reg))
		srv.MountHandlers(&server.Handlers{P: progress})
		done := srv.Start(srvCtx, cfg.MetricsAddr)
		defer func() { cancel(); <-done }()
	}

	warmUp()

	avail := app.NewAvailabilityService(client, cfg.Workers)
	runner := app.NewRunner(catalog, avail)
	if progress != nil {
		runner.OnCandidates = progress.SetTotal
		avail.OnResult(func(r domain.AvailabilityResult) { progress.Record(r.Available, r.Note != "") })
	}

	if cfg.Probe {
		places, err := runner.Candidates(ctx, req, cfg.RefreshCache)
		if err != nil {
			return err
		}
		return app.NewProbeService(client).Probe(ctx, stdout, places, req, cfg.ProbeID)
	}

	sum, err := runner.Search(ctx, req, cfg.Out, cfg.RefreshCache)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Checked %d places: %d available, %d failed. Wrote %s\n", sum.Candidates, sum.Available, sum.Failed, sum.Out)
	return nil
}

func buildRequest(cfg shared.Config) (domain.SearchRequest, error) {
	req := domain.SearchRequest{
		Nights:    cfg.Nights,
		Regions:   cfg.Regions,
		Title:     cfg.Filter,
		MaxPlaces: cfg.MaxPlaces,
	}
	if cfg.Start == "" {
		return req, fmt.Errorf("%w: --start is required (YYYY-MM-DD)", domain.ErrInvalidRequest)
	}
	start, err := time.ParseInLocation(domain.DateLayout, cfg.Start, time.Local)
	if err != nil {
		return req, fmt.Errorf("%w: --start %q is not a YYYY-MM-DD date", domain.ErrInvalidRequest, cfg.Start)
	}
	req.Start = start
	return req, nil
}

func listRegions(ctx context.Context, catalog *app.CatalogService, refresh bool, w io.Writer) error {
	names := make([]string, 0, len(app.Presets()))
	for _, p := range app.Presets() {
		names = append(names, p.Name)
	}
	fmt.Fprintf(w, "Preset regions: %s\n", strings.Join(names, ", "))

	places, err := catalog.Load(ctx, refresh)
	if err != nil {
		if errors.Is(err, domain.ErrCatalogUnavailable) {
			fmt.Fprintln(w, "Catalog regions: unavailable")
		}
		return err
	}
	fmt.Fprintln(w, "Catalog regions:")
	for r := range app.ListRegions(places) {
		fmt.Fprintf(w, "  %s\n", r)
	}
	return nil
}
