// Package rediscache holds the derived fast-read projection of the vote
// ledger. Every write batch for a vote event goes through one MULTI/EXEC
// pipeline so readers never observe a partially applied batch.
package rediscache

import (
	"context"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"contest-voting/internal/domain/vote"
)

const (
	keyTotal      = "votes:total"
	keyRank       = "votes:rank"
	keyByCategory = "votes:bycat"

	// warmMarker makes a warm-but-empty voted set representable: Redis drops
	// empty sets, so the marker member is what distinguishes "warmed from
	// the ledger" from "cold". Reads filter it out.
	warmMarker = "-"
)

func keyCount(contestantID int64) string {
	return "votes:" + strconv.FormatInt(contestantID, 10)
}

func keyVoted(userID string) string {
	return "voted:" + userID
}

type VoteCache struct {
	rdb *redis.Client
}

func NewVoteCache(rdb *redis.Client) *VoteCache {
	return &VoteCache{rdb: rdb}
}

var _ vote.Cache = (*VoteCache)(nil)

func (c *VoteCache) IncrementVote(ctx context.Context, contestantID int64, category, userID string) error {
	member := strconv.FormatInt(contestantID, 10)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyCount(contestantID))
		p.Incr(ctx, keyTotal)
		p.ZIncrBy(ctx, keyRank, 1, member)
		p.HIncrBy(ctx, keyByCategory, category, 1)
		p.SAdd(ctx, keyVoted(userID), member)
		return nil
	})
	return err
}

func (c *VoteCache) DecrementVote(ctx context.Context, contestantID int64, category, userID string) error {
	member := strconv.FormatInt(contestantID, 10)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Decr(ctx, keyCount(contestantID))
		p.Decr(ctx, keyTotal)
		p.ZIncrBy(ctx, keyRank, -1, member)
		p.HIncrBy(ctx, keyByCategory, category, -1)
		p.SRem(ctx, keyVoted(userID), member)
		return nil
	})
	return err
}

func (c *VoteCache) ReplaceVotedSet(ctx context.Context, userID string, contestantIDs []int64) error {
	key := keyVoted(userID)
	members := make([]interface{}, 0, len(contestantIDs)+1)
	members = append(members, warmMarker)
	for _, id := range contestantIDs {
		members = append(members, strconv.FormatInt(id, 10))
	}

	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.SAdd(ctx, key, members...)
		return nil
	})
	return err
}

// ReadVotedSet treats only sets carrying the warm marker as warm. A set that
// exists solely because votes were counted into it (no warm pass yet) is
// still reported cold, so the caller rebuilds it from the ledger.
func (c *VoteCache) ReadVotedSet(ctx context.Context, userID string) ([]int64, bool, error) {
	members, err := c.rdb.SMembers(ctx, keyVoted(userID)).Result()
	if err != nil {
		return nil, false, err
	}

	warm := false
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m == warmMarker {
			warm = true
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if !warm {
		return nil, false, nil
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true, nil
}

// ReadRanking orders by votes descending, contestant id ascending. The
// tie-break is applied here rather than trusting the zset's equal-score
// ordering, which Redis leaves lexicographic.
func (c *VoteCache) ReadRanking(ctx context.Context, limit int) ([]vote.RankEntry, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, keyRank, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]vote.RankEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, vote.RankEntry{ContestantID: id, Votes: int64(z.Score)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Votes != entries[j].Votes {
			return entries[i].Votes > entries[j].Votes
		}
		return entries[i].ContestantID < entries[j].ContestantID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (c *VoteCache) ReadCategoryTotals(ctx context.Context) (map[string]int64, error) {
	raw, err := c.rdb.HGetAll(ctx, keyByCategory).Result()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(raw))
	for category, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		totals[category] = n
	}
	return totals, nil
}

func (c *VoteCache) ReadContestantCounts(ctx context.Context, contestantIDs []int64) (map[int64]int64, error) {
	if len(contestantIDs) == 0 {
		return map[int64]int64{}, nil
	}

	keys := make([]string, len(contestantIDs))
	for i, id := range contestantIDs {
		keys[i] = keyCount(id)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(contestantIDs))
	for i, v := range vals {
		var n int64
		if s, ok := v.(string); ok {
			n, _ = strconv.ParseInt(s, 10, 64)
		}
		counts[contestantIDs[i]] = n
	}
	return counts, nil
}

// RebuildAggregates swaps in counters recomputed from the ledger. Count keys
// for contestants no longer present in the ledger are discovered by SCAN and
// dropped in the same transaction, so a contestant whose last vote was
// removed reads as zero again.
func (c *VoteCache) RebuildAggregates(ctx context.Context, counts map[int64]int64, categories map[int64]string) error {
	stale, err := c.scanCountKeys(ctx)
	if err != nil {
		return err
	}

	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range stale {
			p.Del(ctx, key)
		}
		p.Del(ctx, keyRank, keyByCategory)

		var total int64
		byCategory := make(map[string]int64)
		for id, n := range counts {
			p.Set(ctx, keyCount(id), n, 0)
			p.ZAdd(ctx, keyRank, redis.Z{Score: float64(n), Member: strconv.FormatInt(id, 10)})
			total += n
			byCategory[categories[id]] += n
		}
		for category, n := range byCategory {
			p.HSet(ctx, keyByCategory, category, n)
		}
		p.Set(ctx, keyTotal, total, 0)
		return nil
	})
	return err
}

func (c *VoteCache) scanCountKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, "votes:*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range batch {
			if key == keyTotal || key == keyRank || key == keyByCategory {
				continue
			}
			keys = append(keys, key)
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Total reads the global counter; used by the readiness probe and tests.
func (c *VoteCache) Total(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, keyTotal).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}
