// Package bootstrap assembles process dependencies for the API binary.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	delegationregistry "liquidvote/contexts/decision-core/delegation-registry"
	delegationpostgres "liquidvote/contexts/decision-core/delegation-registry/adapters/postgres"
	voteengine "liquidvote/contexts/decision-core/vote-engine"
	votepostgres "liquidvote/contexts/decision-core/vote-engine/adapters/postgres"
	"liquidvote/internal/platform/config"
	"liquidvote/internal/platform/db"
	"liquidvote/internal/platform/httpserver"
)

// APIApp is a fully wired API process.
type APIApp struct {
	Server   *httpserver.Server
	Logger   *slog.Logger
	postgres *db.Postgres
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		"service", cfg.ServiceName,
		"process", "api",
	)

	postgres, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	voteRepo := votepostgres.NewRepository(postgres.DB, logger)
	voteModule := voteengine.NewModule(voteengine.Dependencies{
		Tx:             voteRepo,
		Votes:          voteRepo,
		Polls:          voteRepo,
		Clock:          votepostgres.SystemClock{},
		IDGen:          votepostgres.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	delegationRepo := delegationpostgres.NewRepository(postgres.DB, logger)
	delegationModule := delegationregistry.NewModule(delegationregistry.Dependencies{
		Repository:     delegationRepo,
		Idempotency:    delegationRepo,
		Clock:          delegationpostgres.SystemClock{},
		IDGen:          delegationpostgres.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	server := httpserver.New(voteModule, delegationModule, logger, httpserver.Options{
		Addr:            ":" + cfg.HTTPPort,
		EnableSwaggerUI: cfg.EnableSwaggerUI,
	})

	return &APIApp{
		Server:   server,
		Logger:   logger,
		postgres: postgres,
	}, nil
}

func (a *APIApp) Run() error {
	return a.Server.Start()
}

func (a *APIApp) Close() error {
	return a.postgres.Close()
}
