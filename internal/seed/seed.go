// Package seed loads a demo family into an empty database.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorepoints/internal/database"
	"github.com/dukerupert/chorepoints/internal/model"
	"github.com/dukerupert/chorepoints/internal/store"
)

type choreSeed struct {
	title, description string
	points             int
	icon               string
}

type kidSeed struct {
	username string
	chores   []choreSeed
}

var kids = []kidSeed{
	{
		username: "Ian",
		chores: []choreSeed{
			{"Brush Teeth", "Morning and Night", 10, "🪥"},
			{"Make Bed", "Arrange pillows and blanket", 20, "🛏️"},
			{"Put Dishes Away", "After eating", 15, "🍽️"},
			{"Clean Table", "Wipe it down", 15, "🧽"},
		},
	},
	{
		username: "Gael",
		chores: []choreSeed{
			{"Soccer Practice", "Practice dribbling for 15 mins", 30, "⚽"},
			{"Put Away Toys", "Clear the floor", 10, "🧸"},
			{"Help with Dinner", "Set the table", 20, "🍴"},
		},
	},
}

var rewards = []struct {
	title string
	cost  int
	icon  string
}{
	{"Roblox Time (30m)", 150, "🎮"},
	{"Ice Cream Treat", 200, "🍦"},
	{"New Soccer Ball", 500, "⚽"},
	{"Pizza Night", 300, "🍕"},
}

// Run inserts one parent, two kids with daily chores, and a reward catalog.
// It does nothing when any profile already exists. It reports whether data
// was written.
func Run(ctx context.Context, db *sql.DB, password string, logger *slog.Logger) (bool, error) {
	n, err := store.NewProfileStore(db).Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logger.Debug("seed skipped, profiles exist", "count", n)
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash seed password: %w", err)
	}

	err = database.WithTx(ctx, db, func(tx *sql.Tx) error {
		profiles := store.NewProfileStore(tx)
		chores := store.NewChoreStore(tx)
		rewardStore := store.NewRewardStore(tx)

		parent, err := profiles.Create(ctx, "parent", "Parent", string(hash), model.RoleParent, nil)
		if err != nil {
			return err
		}

		for _, k := range kids {
			kid, err := profiles.Create(ctx, k.username, k.username, string(hash), model.RoleKid, &parent.ID)
			if err != nil {
				return err
			}
			for _, c := range k.chores {
				if _, err := chores.Create(ctx, c.title, c.description, c.icon, c.points, kid.ID, model.ChoreDaily); err != nil {
					return err
				}
			}
		}

		for _, r := range rewards {
			if _, err := rewardStore.Create(ctx, r.title, "", r.icon, r.cost, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	logger.Info("seeded demo family", "parent", "parent", "kids", len(kids), "rewards", len(rewards))
	return true, nil
}
