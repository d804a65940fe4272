package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/roomescape-reservation/internal/config"
	"github.com/iliyamo/roomescape-reservation/internal/handler"
	"github.com/iliyamo/roomescape-reservation/internal/middleware"
	"github.com/iliyamo/roomescape-reservation/internal/router"
	"github.com/iliyamo/roomescape-reservation/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	opts := []service.Option{service.WithLogger(a.log), service.WithLocation(loc)}
	if a.cfg.Events.Enabled {
		opts = append(opts, service.WithPublisher(service.NewAMQPPublisher(a.cfg.Events.URL, a.cfg.Events.Queue, a.log)))
		a.log.Info().Str("queue", a.cfg.Events.Queue).Msg("reservation events enabled")
	}
	reservations := service.NewReservationService(st.catalog, st.ledger, opts...)
	catalog := service.NewCatalogService(st.catalog, opts...)
	catalog.SetPopularRanking(a.cfg.PopularWindowDays, a.cfg.PopularLimit)

	rdb := config.NewRedisClient(a.cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	} else if a.cfg.Redis.Enabled {
		a.log.Warn().Str("addr", a.cfg.Redis.Address()).Msg("redis unreachable; cache and rate limit disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(a.log))

	router.RegisterRoutes(e, router.Deps{
		Reservations: handler.NewReservationHandler(reservations, a.log),
		Catalog:      handler.NewCatalogHandler(catalog, a.log),
		Cache:        middleware.NewResponseCache(a.cfg.Cache, rdb, a.log),
		RateLimit:    middleware.NewTokenBucket(a.cfg.RateLimit, rdb, a.log),
	})

	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Str("store", a.cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
