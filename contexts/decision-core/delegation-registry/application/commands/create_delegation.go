package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "liquidvote/contexts/decision-core/delegation-registry/application"
	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	"liquidvote/contexts/decision-core/delegation-registry/ports"
)

// CreateDelegationCommand is the write-model input for a new delegation edge.
type CreateDelegationCommand struct {
	FollowerID     string
	LeaderID       string
	CategoryIDs    []string
	IdempotencyKey string
}

type CreateDelegationResult struct {
	Delegation entities.Delegation `json:"delegation"`
	Replayed   bool                `json:"replayed"`
}

// CreateDelegationUseCase validates the graph invariants and persists the
// edge. Self-delegation is rejected before any write; duplicate
// (leader, follower) pairs are rejected by the storage layer's unique
// constraint.
type CreateDelegationUseCase struct {
	Repository     ports.DelegationRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc CreateDelegationUseCase) Execute(ctx context.Context, cmd CreateDelegationCommand) (CreateDelegationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("create delegation started",
		"event", "decision_create_delegation_started",
		"module", "decision-core/delegation-registry",
		"layer", "application",
		"follower_id", strings.TrimSpace(cmd.FollowerID),
		"leader_id", strings.TrimSpace(cmd.LeaderID),
		"categories", len(cmd.CategoryIDs),
	)

	followerID := strings.TrimSpace(cmd.FollowerID)
	leaderID := strings.TrimSpace(cmd.LeaderID)
	if followerID == "" || leaderID == "" {
		return CreateDelegationResult{}, domainerrors.ErrInvalidDelegationInput
	}
	if followerID == leaderID {
		return CreateDelegationResult{}, domainerrors.ErrSelfDelegation
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateDelegationResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	categoryIDs := normalizeCategoryIDs(cmd.CategoryIDs)
	now := uc.now()
	requestHash := hashCreateDelegationCommand(followerID, leaderID, categoryIDs)
	idempotencyKey := "decision_delegation:" + strings.TrimSpace(cmd.IdempotencyKey)

	record, found, err := uc.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return CreateDelegationResult{}, err
	}
	if found {
		if record.RequestHash != requestHash {
			return CreateDelegationResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay CreateDelegationResult
		if err := json.Unmarshal(record.ResponsePayload, &replay); err != nil {
			return CreateDelegationResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	delegationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateDelegationResult{}, err
	}
	delegation := entities.Delegation{
		DelegationID: delegationID,
		FollowerID:   followerID,
		LeaderID:     leaderID,
		CategoryIDs:  categoryIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Repository.CreateDelegation(ctx, delegation); err != nil {
		logger.Warn("create delegation write failed",
			"event", "decision_create_delegation_write_failed",
			"module", "decision-core/delegation-registry",
			"layer", "application",
			"follower_id", followerID,
			"leader_id", leaderID,
			"error", err.Error(),
		)
		return CreateDelegationResult{}, err
	}

	result := CreateDelegationResult{Delegation: delegation}
	payload, err := json.Marshal(result)
	if err != nil {
		return CreateDelegationResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "create_delegation",
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CreateDelegationResult{}, err
	}

	logger.Info("create delegation completed",
		"event", "decision_create_delegation_completed",
		"module", "decision-core/delegation-registry",
		"layer", "application",
		"delegation_id", delegation.DelegationID,
		"follower_id", followerID,
		"leader_id", leaderID,
	)
	return result, nil
}

func (uc CreateDelegationUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc CreateDelegationUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func normalizeCategoryIDs(categoryIDs []string) []string {
	seen := make(map[string]struct{}, len(categoryIDs))
	normalized := make([]string, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		categoryID = strings.TrimSpace(categoryID)
		if categoryID == "" {
			continue
		}
		if _, ok := seen[categoryID]; ok {
			continue
		}
		seen[categoryID] = struct{}{}
		normalized = append(normalized, categoryID)
	}
	sort.Strings(normalized)
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func hashCreateDelegationCommand(followerID string, leaderID string, categoryIDs []string) string {
	payload := map[string]any{
		"follower_id":  followerID,
		"leader_id":    leaderID,
		"category_ids": categoryIDs,
		"op":           "create_delegation",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
