package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"liquidvote/contexts/decision-core/vote-engine/domain/entities"
	domainerrors "liquidvote/contexts/decision-core/vote-engine/domain/errors"
	"liquidvote/contexts/decision-core/vote-engine/ports"

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

// InTransaction runs fn against store views bound to one database
// transaction. The unique (poll_id, user_id) constraint plus this isolation
// is what keeps concurrent submissions from double-writing a follower.
func (r *Repository) InTransaction(ctx context.Context, fn func(stores ports.TxStores) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &Repository{db: tx, logger: r.logger}
		return fn(ports.TxStores{
			Votes:       repo,
			Graph:       repo,
			Polls:       repo,
			Idempotency: repo,
		})
	})
}

func (r *Repository) SaveVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"choice_id":   row.ChoiceID,
			"delegate_id": row.DelegateID,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrVoteConflict
		}
		return r.logError("decision_repo_save_vote_failed", create.Error,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"poll_id", strings.TrimSpace(vote.PollID),
			"user_id", strings.TrimSpace(vote.UserID),
		)
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(ctx context.Context, pollID string, userID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("decision_repo_get_vote_by_identity_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) InsertVotes(ctx context.Context, votes []entities.Vote) ([]entities.Vote, error) {
	if len(votes) == 0 {
		return nil, nil
	}
	rows := make([]voteModel, 0, len(votes))
	ids := make([]string, 0, len(votes))
	for _, vote := range votes {
		row := voteModelFromEntity(vote)
		rows = append(rows, row)
		ids = append(ids, row.ID)
	}
	// A conflict on (poll_id, user_id) means a concurrent submission already
	// gave that user a vote; the row is dropped, never an error.
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&rows)
	if create.Error != nil {
		return nil, r.logError("decision_repo_insert_votes_failed", create.Error,
			"poll_id", strings.TrimSpace(votes[0].PollID),
			"count", len(votes),
		)
	}
	if create.RowsAffected == int64(len(rows)) {
		items := make([]entities.Vote, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.toEntity())
		}
		return items, nil
	}

	// Some rows lost the conflict race; only rows carrying our generated ids
	// were actually written.
	var written []voteModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at ASC").
		Find(&written).Error; err != nil {
		return nil, r.logError("decision_repo_insert_votes_verify_failed", err,
			"poll_id", strings.TrimSpace(votes[0].PollID),
		)
	}
	inserted := make([]entities.Vote, 0, len(written))
	for _, row := range written {
		inserted = append(inserted, row.toEntity())
	}
	return inserted, nil
}

func (r *Repository) ListVotedUsers(ctx context.Context, pollID string, userIDs []string) (map[string]bool, error) {
	voted := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return voted, nil
	}
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Select("user_id").
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_voted_users_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	for _, row := range rows {
		voted[row.UserID] = true
	}
	return voted, nil
}

func (r *Repository) ListVotesByPoll(ctx context.Context, pollID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_votes_by_poll_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetEdge(ctx context.Context, leaderID string, followerID string) (entities.DelegationEdge, bool, error) {
	var row delegationModel
	err := r.db.WithContext(ctx).
		Where("leader_id = ?", strings.TrimSpace(leaderID)).
		Where("follower_id = ?", strings.TrimSpace(followerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DelegationEdge{}, false, nil
		}
		return entities.DelegationEdge{}, false, r.logError("decision_repo_get_edge_failed", err,
			"leader_id", strings.TrimSpace(leaderID),
			"follower_id", strings.TrimSpace(followerID),
		)
	}
	scopes, err := r.listScopes(ctx, []string{row.ID})
	if err != nil {
		return entities.DelegationEdge{}, false, err
	}
	return entities.DelegationEdge{
		FollowerID:  row.FollowerID,
		LeaderID:    row.LeaderID,
		CategoryIDs: scopes[row.ID],
	}, true, nil
}

func (r *Repository) ListEdgesByLeaders(ctx context.Context, leaderIDs []string) ([]entities.DelegationEdge, error) {
	if len(leaderIDs) == 0 {
		return nil, nil
	}
	var rows []delegationModel
	if err := r.db.WithContext(ctx).
		Where("leader_id IN ?", leaderIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_edges_by_leaders_failed", err,
			"leaders", len(leaderIDs),
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
	edges := make([]entities.DelegationEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, entities.DelegationEdge{
			FollowerID:  row.FollowerID,
			LeaderID:    row.LeaderID,
			CategoryIDs: scopes[row.ID],
		})
	}
	return edges, nil
}

func (r *Repository) listScopes(ctx context.Context, delegationIDs []string) (map[string][]string, error) {
	var rows []delegationCategoryModel
	if err := r.db.WithContext(ctx).
		Where("delegation_id IN ?", delegationIDs).
		Order("category_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_scopes_failed", err,
			"delegations", len(delegationIDs),
		)
	}
	scopes := make(map[string][]string, len(delegationIDs))
	for _, row := range rows {
		scopes[row.DelegationID] = append(scopes[row.DelegationID], row.CategoryID)
	}
	return scopes, nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (ports.PollProjection, error) {
	var row pollProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.PollProjection{}, domainerrors.ErrPollNotFound
		}
		return ports.PollProjection{}, r.logError("decision_repo_get_poll_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	categoryID := ""
	if row.CategoryID != nil {
		categoryID = strings.TrimSpace(*row.CategoryID)
	}
	return ports.PollProjection{
		PollID:     row.ID,
		Name:       row.Name,
		CategoryID: categoryID,
		IsOpen:     row.IsOpen,
	}, nil
}

func (r *Repository) GetChoice(ctx context.Context, choiceID string) (ports.ChoiceProjection, error) {
	var row choiceProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(choiceID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ChoiceProjection{}, domainerrors.ErrInvalidChoice
		}
		return ports.ChoiceProjection{}, r.logError("decision_repo_get_choice_failed", err,
			"choice_id", strings.TrimSpace(choiceID),
		)
	}
	return ports.ChoiceProjection{
		ChoiceID: row.ID,
		PollID:   row.PollID,
		Name:     row.Name,
	}, nil
}

func (r *Repository) ListChoicesByPoll(ctx context.Context, pollID string) ([]ports.ChoiceProjection, error) {
	var rows []choiceProjectionModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_choices_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]ports.ChoiceProjection, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ChoiceProjection{
			ChoiceID: row.ID,
			PollID:   row.PollID,
			Name:     row.Name,
		})
	}
	return items, nil
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
		return ports.IdempotencyRecord{}, false, r.logError("decision_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("decision_repo_idempotency_expire_failed", err,
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
		return r.logError("decision_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("decision_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
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
		"module", "decision-core/vote-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote engine repository operation failed", fields...)
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

type voteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	PollID     string    `gorm:"column:poll_id"`
	UserID     string    `gorm:"column:user_id"`
	ChoiceID   string    `gorm:"column:choice_id"`
	DelegateID *string   `gorm:"column:delegate_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		PollID:    strings.TrimSpace(vote.PollID),
		UserID:    strings.TrimSpace(vote.UserID),
		ChoiceID:  strings.TrimSpace(vote.ChoiceID),
		CreatedAt: vote.CreatedAt.UTC(),
		UpdatedAt: vote.UpdatedAt.UTC(),
	}
	if strings.TrimSpace(vote.DelegateID) != "" {
		delegateID := strings.TrimSpace(vote.DelegateID)
		row.DelegateID = &delegateID
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	delegateID := ""
	if m.DelegateID != nil {
		delegateID = strings.TrimSpace(*m.DelegateID)
	}
	return entities.Vote{
		VoteID:     m.ID,
		PollID:     m.PollID,
		UserID:     m.UserID,
		ChoiceID:   m.ChoiceID,
		DelegateID: delegateID,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type delegationModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	FollowerID string    `gorm:"column:follower_id"`
	LeaderID   string    `gorm:"column:leader_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (delegationModel) TableName() string {
	return "delegations"
}

type delegationCategoryModel struct {
	DelegationID string `gorm:"column:delegation_id;primaryKey"`
	CategoryID   string `gorm:"column:category_id;primaryKey"`
}

func (delegationCategoryModel) TableName() string {
	return "delegation_categories"
}

type pollProjectionModel struct {
	ID         string  `gorm:"column:id;primaryKey"`
	Name       string  `gorm:"column:name"`
	CategoryID *string `gorm:"column:category_id"`
	IsOpen     bool    `gorm:"column:is_open"`
}

func (pollProjectionModel) TableName() string {
	return "polls"
}

type choiceProjectionModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	PollID string `gorm:"column:poll_id"`
	Name   string `gorm:"column:name"`
}

func (choiceProjectionModel) TableName() string {
	return "choices"
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

var _ ports.Transactor = (*Repository)(nil)
var _ ports.VoteStore = (*Repository)(nil)
var _ ports.DelegationGraph = (*Repository)(nil)
var _ ports.PollCatalog = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
