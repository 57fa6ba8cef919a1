package postgres

import (
	"context"
	"database/sql"
	"errors"

	"contest-voting/internal/domain/contestant"
)

type ContestantRepo struct {
	db *sql.DB
}

func NewContestantRepo(db *sql.DB) *ContestantRepo {
	return &ContestantRepo{db: db}
}

var _ contestant.Repository = (*ContestantRepo)(nil)

// Create inserts one contestant. ID 0 picks the next id past the current
// maximum inside the statement.
func (r *ContestantRepo) Create(ctx context.Context, c *contestant.Contestant) error {
	query := `
        INSERT INTO contestants (id, name, category, photo)
        VALUES (
            COALESCE(NULLIF($1::bigint, 0), (SELECT COALESCE(MAX(id), 0) + 1 FROM contestants)),
            $2, $3, $4
        )
        RETURNING id, created_at
    `
	return r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.Category, c.Photo).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *ContestantRepo) GetByID(ctx context.Context, id int64) (*contestant.Contestant, error) {
	c := &contestant.Contestant{}
	err := r.db.QueryRowContext(ctx, `
        SELECT id, name, category, photo, created_at
        FROM contestants WHERE id = $1
    `, id).Scan(&c.ID, &c.Name, &c.Category, &c.Photo, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contestant.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContestantRepo) GetCategory(ctx context.Context, id int64) (string, error) {
	var category string
	err := r.db.QueryRowContext(ctx,
		`SELECT category FROM contestants WHERE id = $1`, id).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", contestant.ErrNotFound
	}
	return category, err
}

func (r *ContestantRepo) List(ctx context.Context) ([]contestant.Contestant, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, category, photo, created_at
        FROM contestants
        ORDER BY id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []contestant.Contestant
	for rows.Next() {
		var c contestant.Contestant
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Photo, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ContestantRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM contestants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
