package vote

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateVote means the (user, contestant) pair already exists in
	// the ledger. It is an expected outcome, not a failure.
	ErrDuplicateVote = errors.New("user already voted for this contestant")
)

// UnknownCategory is used when the roster has no entry for a contestant.
const UnknownCategory = "unknown"

// Record is a single vote fact. The ledger owns these exclusively; the
// (UserID, ContestantID) pair is unique across all records.
type Record struct {
	UserID       string    `json:"user_id"`
	ContestantID int64     `json:"contestant_id"`
	CastAt       time.Time `json:"cast_at"`
}

// RankEntry is one row of the derived leaderboard.
type RankEntry struct {
	ContestantID int64 `json:"contestant_id"`
	Votes        int64 `json:"votes"`
}

// Ledger is the authoritative vote store. Insert must enforce uniqueness
// atomically in the store itself, never by check-then-insert.
type Ledger interface {
	Insert(ctx context.Context, userID string, contestantID int64) error
	Delete(ctx context.Context, userID string, contestantID int64) error
	ListContestantIDs(ctx context.Context, userID string) ([]int64, error)
	CountByContestant(ctx context.Context) (map[int64]int64, error)
}

// Cache is the derived fast-read projection. Every method may fail when the
// backing store is down; callers treat staleness as acceptable and never let
// a cache error change a ledger outcome.
type Cache interface {
	IncrementVote(ctx context.Context, contestantID int64, category, userID string) error
	DecrementVote(ctx context.Context, contestantID int64, category, userID string) error
	ReplaceVotedSet(ctx context.Context, userID string, contestantIDs []int64) error
	// ReadVotedSet reports warm=false on a cold miss, which is distinct
	// from a warm empty set.
	ReadVotedSet(ctx context.Context, userID string) (ids []int64, warm bool, err error)
	ReadRanking(ctx context.Context, limit int) ([]RankEntry, error)
	ReadCategoryTotals(ctx context.Context) (map[string]int64, error)
	ReadContestantCounts(ctx context.Context, contestantIDs []int64) (map[int64]int64, error)
	RebuildAggregates(ctx context.Context, counts map[int64]int64, categories map[int64]string) error
}

// Roster resolves a contestant's category. Owned by the roster collaborator.
type Roster interface {
	GetCategory(ctx context.Context, contestantID int64) (string, error)
}

// Publisher emits the payload-free "something changed" marker.
type Publisher interface {
	Publish(ctx context.Context) error
}
