package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/chorepoints/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(s scanner) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := s.Scan(&r.ID, &r.Title, &r.Description, &r.Icon, &r.Cost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, title, description, icon, cost, active, created_at`

func (s *RewardStore) Create(ctx context.Context, title, description, icon string, cost int, active bool) (*model.Reward, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (title, description, icon, cost, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		title, description, icon, cost, boolInt(active), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns all rewards, active first, then by cost.
func (s *RewardStore) List(ctx context.Context) ([]model.Reward, error) {
	return s.query(ctx, `SELECT `+rewardCols+` FROM rewards ORDER BY active DESC, cost ASC, id ASC`)
}

// ListActive returns only active rewards, cheapest first.
func (s *RewardStore) ListActive(ctx context.Context) ([]model.Reward, error) {
	return s.query(ctx, `SELECT `+rewardCols+` FROM rewards WHERE active = 1 ORDER BY cost ASC, id ASC`)
}

func (s *RewardStore) query(ctx context.Context, query string, args ...any) ([]model.Reward, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(ctx context.Context, id int64, title, description, icon string, cost int, active bool) (*model.Reward, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET title = ?, description = ?, icon = ?, cost = ?, active = ? WHERE id = ?`,
		title, description, icon, cost, boolInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Archive deactivates a reward. Redemptions reference rewards, so rows are never deleted.
func (s *RewardStore) Archive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rewards SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(s scanner) (*model.Redemption, error) {
	var r model.Redemption
	var requestKey sql.NullString
	var processedAt sql.NullTime

	err := s.Scan(
		&r.ID, &r.RewardID, &r.ProfileID, &r.Status, &r.PointsSpent, &requestKey,
		&r.ClaimedAt, &processedAt,
		&r.User.Username, &r.User.FirstName,
		&r.Reward.Title, &r.Reward.Icon, &r.Reward.Cost,
	)
	if err != nil {
		return nil, err
	}

	r.User.ID = r.ProfileID
	r.Reward.ID = r.RewardID
	if requestKey.Valid {
		r.RequestKey = &requestKey.String
	}
	if processedAt.Valid {
		r.ProcessedAt = &processedAt.Time
	}
	return &r, nil
}

const redemptionSelect = `SELECT r.id, r.reward_id, r.profile_id, r.status, r.points_spent, r.request_key,
	r.claimed_at, r.processed_at, p.username, p.first_name, w.title, w.icon, w.cost
	FROM redemptions r
	JOIN profiles p ON p.id = r.profile_id
	JOIN rewards w ON w.id = r.reward_id`

func (s *RewardStore) CreateRedemption(ctx context.Context, rewardID, profileID int64, pointsSpent int, requestKey string) (*model.Redemption, error) {
	var key sql.NullString
	if requestKey != "" {
		key = sql.NullString{String: requestKey, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO redemptions (reward_id, profile_id, status, points_spent, request_key, claimed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rewardID, profileID, model.RedemptionPending, pointsSpent, key, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRedemption(ctx, id)
}

func (s *RewardStore) GetRedemption(ctx context.Context, id int64) (*model.Redemption, error) {
	row := s.db.QueryRowContext(ctx, redemptionSelect+` WHERE r.id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

func (s *RewardStore) GetRedemptionByRequestKey(ctx context.Context, profileID int64, requestKey string) (*model.Redemption, error) {
	row := s.db.QueryRowContext(ctx, redemptionSelect+` WHERE r.profile_id = ? AND r.request_key = ?`, profileID, requestKey)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption by request key: %w", err)
	}
	return r, nil
}

// RedemptionFilter narrows ListRedemptions. Zero fields do not filter.
type RedemptionFilter struct {
	ParentID    int64
	ProfileID   int64
	Status      model.RedemptionStatus
	OldestFirst bool
}

func (s *RewardStore) ListRedemptions(ctx context.Context, f RedemptionFilter) ([]model.Redemption, error) {
	var where []string
	var args []any
	if f.ParentID != 0 {
		where = append(where, `p.parent_id = ?`)
		args = append(args, f.ParentID)
	}
	if f.ProfileID != 0 {
		where = append(where, `r.profile_id = ?`)
		args = append(args, f.ProfileID)
	}
	if f.Status != "" {
		where = append(where, `r.status = ?`)
		args = append(args, f.Status)
	}

	query := redemptionSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	if f.OldestFirst {
		query += ` ORDER BY r.claimed_at ASC, r.id ASC`
	} else {
		query += ` ORDER BY r.claimed_at DESC, r.id DESC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// TransitionRedemption moves a redemption from one status to another and
// stamps processed_at. It reports false when the row was not in status from.
func (s *RewardStore) TransitionRedemption(ctx context.Context, id int64, from, to model.RedemptionStatus, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE redemptions SET status = ?, processed_at = ? WHERE id = ? AND status = ?`,
		to, at.UTC(), id, from,
	)
	if err != nil {
		return false, fmt.Errorf("transition redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
