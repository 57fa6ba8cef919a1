package vote

import (
	"context"
	"errors"
	"log/slog"
)

// Service keeps the ledger and the derived cache in step. The ledger write
// always gates the outcome; cache mutation and event publication are
// best-effort and never roll the ledger back.
type Service struct {
	ledger Ledger
	cache  Cache
	roster Roster
	bus    Publisher
	log    *slog.Logger
}

func NewService(ledger Ledger, cache Cache, roster Roster, bus Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{ledger: ledger, cache: cache, roster: roster, bus: bus, log: log}
}

// AddVote records a vote. The two flags distinguish "recorded", "already
// existed" (accepted=true, duplicate=true) and "ledger failed"
// (accepted=false) without overloading errors.
func (s *Service) AddVote(ctx context.Context, userID string, contestantID int64) (accepted, duplicate bool) {
	category := s.categoryOf(ctx, contestantID)

	if err := s.ledger.Insert(ctx, userID, contestantID); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			return true, true
		}
		s.log.Error("ledger insert failed", "user", userID, "contestant", contestantID, "err", err)
		return false, false
	}

	if err := s.cache.IncrementVote(ctx, contestantID, category, userID); err != nil {
		s.log.Warn("cache increment failed, counters stale until rebuild",
			"user", userID, "contestant", contestantID, "err", err)
	}

	s.publish(ctx)
	return true, false
}

// RemoveVote deletes the ledger record; deleting an absent record is a
// no-op success. Only the ledger result is reported.
func (s *Service) RemoveVote(ctx context.Context, userID string, contestantID int64) error {
	if err := s.ledger.Delete(ctx, userID, contestantID); err != nil {
		s.log.Error("ledger delete failed", "user", userID, "contestant", contestantID, "err", err)
		return err
	}

	category := s.categoryOf(ctx, contestantID)
	if err := s.cache.DecrementVote(ctx, contestantID, category, userID); err != nil {
		s.log.Warn("cache decrement failed, counters stale until rebuild",
			"user", userID, "contestant", contestantID, "err", err)
	}

	s.publish(ctx)
	return nil
}

// LoadUserVotes returns the user's voted set, warming the cache from the
// ledger on a cold miss. Concurrent warms for one user may duplicate work;
// the replace is idempotent for a given ledger snapshot.
func (s *Service) LoadUserVotes(ctx context.Context, userID string) ([]int64, error) {
	ids, warm, err := s.cache.ReadVotedSet(ctx, userID)
	if err == nil && warm {
		return ids, nil
	}
	if err != nil {
		s.log.Warn("cache voted-set read failed, falling back to ledger", "user", userID, "err", err)
	}

	ids, err = s.ledger.ListContestantIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.ReplaceVotedSet(ctx, userID, ids); err != nil {
		s.log.Warn("cache warm failed", "user", userID, "err", err)
	}
	return ids, nil
}

// Ranking returns the leaderboard. Cache reads are advisory: on failure the
// result is empty rather than an error, matching the dashboards' tolerance
// for a briefly blank board.
func (s *Service) Ranking(ctx context.Context, limit int) []RankEntry {
	entries, err := s.cache.ReadRanking(ctx, limit)
	if err != nil {
		s.log.Warn("cache ranking read failed", "err", err)
		return nil
	}
	return entries
}

func (s *Service) CategoryTotals(ctx context.Context) map[string]int64 {
	totals, err := s.cache.ReadCategoryTotals(ctx)
	if err != nil {
		s.log.Warn("cache category totals read failed", "err", err)
		return map[string]int64{}
	}
	return totals
}

func (s *Service) ContestantCounts(ctx context.Context, ids []int64) map[int64]int64 {
	counts, err := s.cache.ReadContestantCounts(ctx, ids)
	if err != nil {
		s.log.Warn("cache contestant counts read failed", "err", err)
		counts = make(map[int64]int64, len(ids))
	}
	for _, id := range ids {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts
}

// RebuildAggregates recomputes every aggregate counter from the ledger and
// swaps the result into the cache. Per-user voted sets are not touched; they
// heal lazily through LoadUserVotes.
func (s *Service) RebuildAggregates(ctx context.Context) error {
	counts, err := s.ledger.CountByContestant(ctx)
	if err != nil {
		return err
	}

	categories := make(map[int64]string, len(counts))
	for id := range counts {
		categories[id] = s.categoryOf(ctx, id)
	}

	return s.cache.RebuildAggregates(ctx, counts, categories)
}

func (s *Service) categoryOf(ctx context.Context, contestantID int64) string {
	category, err := s.roster.GetCategory(ctx, contestantID)
	if err != nil || category == "" {
		return UnknownCategory
	}
	return category
}

func (s *Service) publish(ctx context.Context) {
	if err := s.bus.Publish(ctx); err != nil {
		s.log.Warn("change notification publish failed", "err", err)
	}
}
