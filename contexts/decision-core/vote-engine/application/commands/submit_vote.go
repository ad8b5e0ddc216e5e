package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "liquidvote/contexts/decision-core/vote-engine/application"
	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	"liquidvote/contexts/decision-core/vote-engine/ports"
)

// SubmitVoteCommand is the write-model input for casting or updating a vote.
// DelegateID is set when the caller votes on the user's behalf; Secure
// requests the delegate authorization and direct-vote protection checks and
// is the default for every external entry point.
type SubmitVoteCommand struct {
	PollID         string
	UserID         string
	ChoiceID       string
	DelegateID     string
	Secure         bool
	IdempotencyKey string
}

// SubmitVoteResult returns the written vote, the inherited votes the
// propagation run created, and replay/update markers.
type SubmitVoteResult struct {
	Vote       entities.Vote   `json:"vote"`
	Propagated []entities.Vote `json:"propagated,omitempty"`
	WasUpdate  bool            `json:"was_update"`
	Replayed   bool            `json:"replayed"`
}

// SubmitVoteUseCase orchestrates the vote write state machine: poll/choice
// validation, delegate authorization, the overwrite rules, and the
// synchronous propagation run, all inside one unit of work.
type SubmitVoteUseCase struct {
	Tx             ports.Transactor
	Engine         PropagationEngine
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc SubmitVoteUseCase) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (SubmitVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("vote submission started",
		"event", "decision_vote_submit_started",
		"module", "decision-core/vote-engine",
		"layer", "application",
		"poll_id", strings.TrimSpace(cmd.PollID),
		"user_id", strings.TrimSpace(cmd.UserID),
		"delegate_id", strings.TrimSpace(cmd.DelegateID),
		"secure", cmd.Secure,
	)

	if strings.TrimSpace(cmd.PollID) == "" ||
		strings.TrimSpace(cmd.UserID) == "" ||
		strings.TrimSpace(cmd.ChoiceID) == "" {
		return SubmitVoteResult{}, domainerrors.ErrInvalidVoteInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return SubmitVoteResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashSubmitVoteCommand(cmd)
	idempotencyKey := "decision_vote:" + strings.TrimSpace(cmd.IdempotencyKey)

	var result SubmitVoteResult
	err := uc.Tx.InTransaction(ctx, func(stores ports.TxStores) error {
		record, found, err := stores.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return err
		}
		if found {
			if record.RequestHash != requestHash {
				return domainerrors.ErrIdempotencyConflict
			}
			if err := json.Unmarshal(record.ResponsePayload, &result); err != nil {
				return err
			}
			result.Replayed = true
			return nil
		}

		poll, err := stores.Polls.GetPoll(ctx, strings.TrimSpace(cmd.PollID))
		if err != nil {
			return err
		}
		if !poll.IsOpen {
			return domainerrors.ErrPollClosed
		}

		choice, err := stores.Polls.GetChoice(ctx, strings.TrimSpace(cmd.ChoiceID))
		if err != nil {
			return err
		}
		if choice.PollID != poll.PollID {
			return domainerrors.ErrInvalidChoice
		}

		if cmd.Secure && strings.TrimSpace(cmd.DelegateID) != "" {
			if err := authorizeDelegate(ctx, stores.Graph, poll, cmd.UserID, cmd.DelegateID); err != nil {
				return err
			}
		}

		vote, err := uc.writeVote(ctx, stores.Votes, poll, choice, cmd, now, &result.WasUpdate)
		if err != nil {
			return err
		}
		result.Vote = vote

		propagated, err := uc.Engine.Propagate(ctx, stores.Votes, stores.Graph, poll, vote, now)
		if err != nil {
			return err
		}
		result.Propagated = propagated

		payload, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return stores.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			Operation:       "submit_vote",
			RequestHash:     requestHash,
			ResponsePayload: payload,
			ExpiresAt:       now.Add(uc.resolveIdempotencyTTL()),
		})
	})
	if err != nil {
		logger.Warn("vote submission failed",
			"event", "decision_vote_submit_failed",
			"module", "decision-core/vote-engine",
			"layer", "application",
			"poll_id", strings.TrimSpace(cmd.PollID),
			"user_id", strings.TrimSpace(cmd.UserID),
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}

	logger.Info("vote submission completed",
		"event", "decision_vote_submit_completed",
		"module", "decision-core/vote-engine",
		"layer", "application",
		"poll_id", result.Vote.PollID,
		"user_id", result.Vote.UserID,
		"choice_id", result.Vote.ChoiceID,
		"was_update", result.WasUpdate,
		"replayed", result.Replayed,
		"propagated", len(result.Propagated),
	)
	return result, nil
}

// writeVote applies the overwrite rules. A direct vote always wins, an
// inherited vote may be refreshed, and a secured delegated submission must
// never replace a vote the user cast themselves.
func (uc SubmitVoteUseCase) writeVote(
	ctx context.Context,
	votes ports.VoteStore,
	poll ports.PollProjection,
	choice ports.ChoiceProjection,
	cmd SubmitVoteCommand,
	now time.Time,
	wasUpdate *bool,
) (entities.Vote, error) {
	existing, found, err := votes.GetVoteByIdentity(ctx, poll.PollID, strings.TrimSpace(cmd.UserID))
	if err != nil {
		return entities.Vote{}, err
	}

	if found {
		if cmd.Secure && strings.TrimSpace(cmd.DelegateID) != "" && existing.Direct() {
			return entities.Vote{}, domainerrors.ErrDirectVoteProtected
		}
		existing.ChoiceID = choice.ChoiceID
		existing.DelegateID = strings.TrimSpace(cmd.DelegateID)
		existing.UpdatedAt = now
		if err := votes.SaveVote(ctx, existing); err != nil {
			return entities.Vote{}, err
		}
		*wasUpdate = true
		return existing, nil
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:     voteID,
		PollID:     poll.PollID,
		UserID:     strings.TrimSpace(cmd.UserID),
		ChoiceID:   choice.ChoiceID,
		DelegateID: strings.TrimSpace(cmd.DelegateID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := votes.SaveVote(ctx, vote); err != nil {
		return entities.Vote{}, err
	}
	return vote, nil
}

// authorizeDelegate validates a claimed delegate relationship for the poll:
// the edge (leader=delegate, follower=user) must exist and its category scope
// must cover the poll.
func authorizeDelegate(
	ctx context.Context,
	graph ports.DelegationGraph,
	poll ports.PollProjection,
	userID string,
	delegateID string,
) error {
	edge, found, err := graph.GetEdge(ctx, strings.TrimSpace(delegateID), strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if !found || !edge.AppliesTo(poll.CategoryID) {
		return domainerrors.ErrUnauthorizedDelegate
	}
	return nil
}

func (uc SubmitVoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc SubmitVoteUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashSubmitVoteCommand(cmd SubmitVoteCommand) string {
	payload := map[string]string{
		"poll_id":     strings.TrimSpace(cmd.PollID),
		"user_id":     strings.TrimSpace(cmd.UserID),
		"choice_id":   strings.TrimSpace(cmd.ChoiceID),
		"delegate_id": strings.TrimSpace(cmd.DelegateID),
		"op":          "submit_vote",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
