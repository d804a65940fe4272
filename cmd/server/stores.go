package main

import (
	"context"
	"fmt"

	"github.com/iliyamo/roomescape-reservation/internal/config"
	"github.com/iliyamo/roomescape-reservation/internal/database"
	"github.com/iliyamo/roomescape-reservation/internal/repository"
	"github.com/iliyamo/roomescape-reservation/internal/repository/memstore"
	"github.com/iliyamo/roomescape-reservation/internal/service"
)

type stores struct {
	catalog service.CatalogStore
	ledger  service.Ledger
	close   func() error
}

// openStores builds the catalog and ledger for cfg.StoreDriver.
func (a *app) openStores(ctx context.Context) (*stores, error) {
	if a.cfg.StoreDriver == config.StoreMemory {
		a.log.Warn().Msg("using in-memory store; data is lost on exit")
		m := memstore.New()
		return &stores{catalog: m, ledger: m, close: func() error { return nil }}, nil
	}

	db, err := database.Open(ctx, a.cfg.DBUser, a.cfg.DBPass, a.cfg.DBHost, a.cfg.DBPort, a.cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}
	if a.cfg.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			a.log.Info().Strs("migrations", applied).Msg("schema migrated")
		}
	}
	return &stores{
		catalog: repository.NewCatalog(db),
		ledger:  repository.NewReservationRepo(db),
		close:   db.Close,
	}, nil
}
