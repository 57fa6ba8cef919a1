package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"contest-voting/internal/domain/vote"
)

// VoteLedger is the authoritative vote store. The composite primary key on
// (user_id, contestant_id) is what enforces one vote per pair; concurrent
// duplicates lose on the constraint, never on a check in Go.
type VoteLedger struct {
	db *sql.DB
}

func NewVoteLedger(db *sql.DB) *VoteLedger {
	return &VoteLedger{db: db}
}

var _ vote.Ledger = (*VoteLedger)(nil)

func (r *VoteLedger) Insert(ctx context.Context, userID string, contestantID int64) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO votes (user_id, contestant_id)
        VALUES ($1, $2)
    `, userID, contestantID)
	if err != nil {
		if isUniqueViolation(err) {
			return vote.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (r *VoteLedger) Delete(ctx context.Context, userID string, contestantID int64) error {
	_, err := r.db.ExecContext(ctx, `
        DELETE FROM votes
        WHERE user_id = $1 AND contestant_id = $2
    `, userID, contestantID)
	return err
}

func (r *VoteLedger) ListContestantIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT contestant_id
        FROM votes
        WHERE user_id = $1
        ORDER BY contestant_id
    `, userID)
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

func (r *VoteLedger) CountByContestant(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT contestant_id, COUNT(*)
        FROM votes
        GROUP BY contestant_id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var id, c int64
		if err := rows.Scan(&id, &c); err != nil {
			return nil, err
		}
		counts[id] = c
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
