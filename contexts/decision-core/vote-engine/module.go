package voteengine

import (
	"log/slog"
	"time"

	httpadapter "liquidvote/contexts/decision-core/vote-engine/adapters/http"
	"liquidvote/contexts/decision-core/vote-engine/adapters/memory"
	"liquidvote/contexts/decision-core/vote-engine/application/commands"
	"liquidvote/contexts/decision-core/vote-engine/application/queries"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Tx             ports.Transactor
	Votes          ports.VoteStore
	Polls          ports.PollCatalog
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submitUseCase := commands.SubmitVoteUseCase{
		Tx: deps.Tx,
		Engine: commands.PropagationEngine{
			IDGen:  deps.IDGen,
			Logger: deps.Logger,
		},
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Votes: deps.Votes,
		Polls: deps.Polls,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes:   submitUseCase,
			Results: resultsUseCase,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Vote, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Tx:             store,
		Votes:          store,
		Polls:          store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
