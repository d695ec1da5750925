package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorepoints/internal/model"
)

type ChoreStore struct {
	db DBTX
}

func NewChoreStore(db DBTX) *ChoreStore {
	return &ChoreStore{db: db}
}

// --- Chore methods ---

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var active int

	err := s.Scan(
		&c.ID, &c.Title, &c.Description, &c.Icon, &c.PointsValue,
		&c.AssignedTo, &c.ChoreType, &active, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Active = active != 0
	return &c, nil
}

const choreCols = `c.id, c.title, c.description, c.icon, c.points_value, c.assigned_to, c.chore_type, c.active, c.created_at`

func (s *ChoreStore) Create(ctx context.Context, title, description, icon string, pointsValue int, assignedTo int64, choreType model.ChoreType) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (title, description, icon, points_value, assigned_to, chore_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, description, icon, pointsValue, assignedTo, choreType, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores c WHERE c.id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ListActive returns the kid's active chores that have no completion for
// their current period. dailyKey and weeklyKey are the current period keys.
func (s *ChoreStore) ListActive(ctx context.Context, kidID int64, dailyKey, weeklyKey string) ([]model.Chore, error) {
	return s.query(ctx,
		`SELECT `+choreCols+` FROM chores c
		 WHERE c.assigned_to = ? AND c.active = 1
		   AND NOT EXISTS (
		     SELECT 1 FROM chore_completions cc
		     WHERE cc.chore_id = c.id AND cc.profile_id = c.assigned_to
		       AND cc.period_key = CASE c.chore_type
		         WHEN 'DAILY' THEN ?
		         WHEN 'WEEKLY' THEN ?
		         ELSE 'once' END
		   )
		 ORDER BY c.created_at ASC, c.id ASC`,
		kidID, dailyKey, weeklyKey,
	)
}

// ListForParent returns every active chore assigned to one of the parent's kids.
func (s *ChoreStore) ListForParent(ctx context.Context, parentID int64) ([]model.Chore, error) {
	return s.query(ctx,
		`SELECT `+choreCols+` FROM chores c
		 JOIN profiles p ON p.id = c.assigned_to
		 WHERE p.parent_id = ? AND c.active = 1
		 ORDER BY c.created_at ASC, c.id ASC`,
		parentID,
	)
}

func (s *ChoreStore) query(ctx context.Context, query string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, id int64, title, description, icon string, pointsValue int, assignedTo int64, choreType model.ChoreType) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, description = ?, icon = ?, points_value = ?, assigned_to = ?, chore_type = ?
		 WHERE id = ?`,
		title, description, icon, pointsValue, assignedTo, choreType, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Archive hides a chore from active lists. Completions keep referencing it.
func (s *ChoreStore) Archive(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chores SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive chore: %w", err)
	}
	return nil
}

// --- Completion methods ---

func scanCompletion(s scanner) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	err := s.Scan(&c.ID, &c.ChoreID, &c.ProfileID, &c.PeriodKey, &c.PointsEarned, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, chore_id, profile_id, period_key, points_earned, completed_at`

func (s *ChoreStore) CompletionExists(ctx context.Context, choreID, profileID int64, periodKey string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chore_completions WHERE chore_id = ? AND profile_id = ? AND period_key = ?`,
		choreID, profileID, periodKey,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return n > 0, nil
}

func (s *ChoreStore) CreateCompletion(ctx context.Context, choreID, profileID int64, periodKey string, pointsEarned int) (*model.ChoreCompletion, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chore_completions (chore_id, profile_id, period_key, points_earned, completed_at) VALUES (?, ?, ?, ?, ?)`,
		choreID, profileID, periodKey, pointsEarned, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+completionCols+` FROM chore_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListCompletionsByProfile(ctx context.Context, profileID int64) ([]model.ChoreCompletion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+completionCols+` FROM chore_completions WHERE profile_id = ? ORDER BY completed_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.ChoreCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
