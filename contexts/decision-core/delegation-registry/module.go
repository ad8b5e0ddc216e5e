package delegationregistry

import (
	"log/slog"
	"time"

	httpadapter "liquidvote/contexts/decision-core/delegation-registry/adapters/http"
	"liquidvote/contexts/decision-core/delegation-registry/adapters/memory"
	"liquidvote/contexts/decision-core/delegation-registry/application/commands"
	"liquidvote/contexts/decision-core/delegation-registry/application/queries"
	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	"liquidvote/contexts/decision-core/delegation-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository     ports.DelegationRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createUseCase := commands.CreateDelegationUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	revokeUseCase := commands.RevokeDelegationUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	listUseCase := queries.ListDelegationsUseCase{
		Repository: deps.Repository,
	}
	return Module{
		Handler: httpadapter.Handler{
			Create: createUseCase,
			Revoke: revokeUseCase,
			List:   listUseCase,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Delegation, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
