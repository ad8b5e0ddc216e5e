package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"liquidvote/contexts/decision-core/delegation-registry/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/delegation-registry/domain/errors"
	"liquidvote/contexts/decision-core/delegation-registry/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateDelegation(ctx context.Context, delegation entities.Delegation) error {
	row := delegationModelFromEntity(delegation)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDelegationExists
			}
			return r.logError("delegation_repo_create_failed", err,
				"delegation_id", row.ID,
				"follower_id", row.FollowerID,
				"leader_id", row.LeaderID,
			)
		}
		for _, categoryID := range delegation.CategoryIDs {
			scope := delegationCategoryModel{
				DelegationID: row.ID,
				CategoryID:   strings.TrimSpace(categoryID),
			}
			if err := tx.Create(&scope).Error; err != nil {
				return r.logError("delegation_repo_create_scope_failed", err,
					"delegation_id", row.ID,
					"category_id", scope.CategoryID,
				)
			}
		}
		return nil
	})
}

func (r *Repository) GetDelegation(ctx context.Context, delegationID string) (entities.Delegation, error) {
	var row delegationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(delegationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Delegation{}, domainerrors.ErrDelegationNotFound
		}
		return entities.Delegation{}, r.logError("delegation_repo_get_failed", err,
			"delegation_id", strings.TrimSpace(delegationID),
		)
	}
	scopes, err := r.listScopes(ctx, []string{row.ID})
	if err != nil {
		return entities.Delegation{}, err
	}
	return row.toEntity(scopes[row.ID]), nil
}

func (r *Repository) DeleteDelegation(ctx context.Context, delegationID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("delegation_id = ?", strings.TrimSpace(delegationID)).
			Delete(&delegationCategoryModel{}).Error; err != nil {
			return r.logError("delegation_repo_delete_scopes_failed", err,
				"delegation_id", strings.TrimSpace(delegationID),
			)
		}
		result := tx.
			Where("id = ?", strings.TrimSpace(delegationID)).
			Delete(&delegationModel{})
		if result.Error != nil {
			return r.logError("delegation_repo_delete_failed", result.Error,
				"delegation_id", strings.TrimSpace(delegationID),
			)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrDelegationNotFound
		}
		return nil
	})
}

func (r *Repository) ListDelegationsByFollower(ctx context.Context, followerID string) ([]entities.Delegation, error) {
	var rows []delegationModel
	if err := r.db.WithContext(ctx).
		Where("follower_id = ?", strings.TrimSpace(followerID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("delegation_repo_list_by_follower_failed", err,
			"follower_id", strings.TrimSpace(followerID),
		)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	scopes, err := r.listScopes(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Delegation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(scopes[row.ID]))
	}
	return items, nil
}

func (r *Repository) listScopes(ctx context.Context, delegationIDs []string) (map[string][]string, error) {
	var rows []delegationCategoryModel
	if err := r.db.WithContext(ctx).
		Where("delegation_id IN ?", delegationIDs).
		Order("category_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("delegation_repo_list_scopes_failed", err,
			"delegations", len(delegationIDs),
		)
	}
	scopes := make(map[string][]string, len(delegationIDs))
	for _, row := range rows {
		scopes[row.DelegationID] = append(scopes[row.DelegationID], row.CategoryID)
	}
	return scopes, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("delegation_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("delegation_repo_idempotency_expire_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		Operation:       row.Operation,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		Operation:       strings.TrimSpace(record.Operation),
		RequestHash:     strings.TrimSpace(record.RequestHash),
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("delegation_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("delegation_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "decision-core/delegation-registry",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("delegation repository operation failed", fields...)
	return err
}

// SystemClock provides wall-clock time for production wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues random identifiers for new rows.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type delegationModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	FollowerID string    `gorm:"column:follower_id"`
	LeaderID   string    `gorm:"column:leader_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (delegationModel) TableName() string {
	return "delegations"
}

func delegationModelFromEntity(delegation entities.Delegation) delegationModel {
	row := delegationModel{
		ID:         strings.TrimSpace(delegation.DelegationID),
		FollowerID: strings.TrimSpace(delegation.FollowerID),
		LeaderID:   strings.TrimSpace(delegation.LeaderID),
		CreatedAt:  delegation.CreatedAt.UTC(),
		UpdatedAt:  delegation.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m delegationModel) toEntity(categoryIDs []string) entities.Delegation {
	return entities.Delegation{
		DelegationID: m.ID,
		FollowerID:   m.FollowerID,
		LeaderID:     m.LeaderID,
		CategoryIDs:  categoryIDs,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type delegationCategoryModel struct {
	DelegationID string `gorm:"column:delegation_id;primaryKey"`
	CategoryID   string `gorm:"column:category_id;primaryKey"`
}

func (delegationCategoryModel) TableName() string {
	return "delegation_categories"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "decision_idempotency"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.DelegationRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
