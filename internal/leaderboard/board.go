// Package leaderboard keeps total earned coins in a Redis sorted set.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultKey = "zeroup:leaderboard:total_earned"

// Entry is one ranked user. Rank is 1-based.
type Entry struct {
	Rank        int64  `json:"rank"`
	UID         string `json:"uid"`
	TotalEarned int64  `json:"totalEarned"`
}

type Board struct {
	rdb *redis.Client
	key string
}

func New(rdb *redis.Client) *Board {
	return &Board{rdb: rdb, key: defaultKey}
}

// Update sets uid's score. Scores only ever grow so a stale write can be
// ignored with GT.
func (b *Board) Update(ctx context.Context, uid string, totalEarned int64) error {
	return b.rdb.ZAddGT(ctx, b.key, redis.Z{Score: float64(totalEarned), Member: uid}).Err()
}

func (b *Board) Remove(ctx context.Context, uid string) error {
	return b.rdb.ZRem(ctx, b.key, uid).Err()
}

// Top returns the first n entries, highest total first.
func (b *Board) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(zs))
	for i, z := range zs {
		uid, _ := z.Member.(string)
		out = append(out, Entry{Rank: int64(i + 1), UID: uid, TotalEarned: int64(z.Score)})
	}
	return out, nil
}

// Rank returns uid's 1-based position, or 0 when uid has no score.
func (b *Board) Rank(ctx context.Context, uid string) (int64, error) {
	r, err := b.rdb.ZRevRank(ctx, b.key, uid).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r + 1, nil
}

// Rebuild replaces the whole set with scores in one MULTI.
func (b *Board) Rebuild(ctx context.Context, scores map[string]int64) error {
	tmp := b.key + ":rebuild"
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, tmp)
		if len(scores) == 0 {
			p.Del(ctx, b.key)
			return nil
		}
		members := make([]redis.Z, 0, len(scores))
		for uid, total := range scores {
			members = append(members, redis.Z{Score: float64(total), Member: uid})
		}
		p.ZAdd(ctx, tmp, members...)
		p.Rename(ctx, tmp, b.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}
	return nil
}
