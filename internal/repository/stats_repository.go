package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository.stats")

const leaderboardKey = "leaderboard:wins"

// PlayerScore is one leaderboard row.
type PlayerScore struct {
	PlayerID string `json:"playerId"`
	Wins     int64  `json:"wins"`
}

// StatsRepository stores aggregate match outcomes. Only tallies survive a
// match; board state is never persisted.
type StatsRepository interface {
	RecordWin(ctx context.Context, playerID string) error
	RecordDraw(ctx context.Context, playerIDs ...string) error
	TopWinners(ctx context.Context, n int64) ([]PlayerScore, error)
}

type redisStatsRepository struct {
	rdb *redis.Client
}

// NewStatsRepository creates a new Redis-based StatsRepository.
func NewStatsRepository(rdb *redis.Client) StatsRepository {
	return &redisStatsRepository{rdb: rdb}
}

// RecordWin bumps the player's win tally and leaderboard score.
func (r *redisStatsRepository) RecordWin(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.RecordWin")
	defer span.End()

	pipe := r.rdb.Pipeline()
	pipe.ZIncrBy(ctx, leaderboardKey, 1, playerID)
	pipe.HIncrBy(ctx, statsKey(playerID), "wins", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record win: %w", err)
	}
	return nil
}

// RecordDraw bumps the draw tally of every listed player.
func (r *redisStatsRepository) RecordDraw(ctx context.Context, playerIDs ...string) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.RecordDraw")
	defer span.End()

	pipe := r.rdb.Pipeline()
	for _, id := range playerIDs {
		pipe.HIncrBy(ctx, statsKey(id), "draws", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record draw: %w", err)
	}
	return nil
}

// TopWinners returns up to n leaderboard rows, highest win count first.
func (r *redisStatsRepository) TopWinners(ctx context.Context, n int64) ([]PlayerScore, error) {
	ctx, span := tracer.Start(ctx, "StatsRepository.TopWinners")
	defer span.End()

	entries, err := r.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	scores := make([]PlayerScore, 0, len(entries))
	for _, e := range entries {
		id, ok := e.Member.(string)
		if !ok {
			continue
		}
		scores = append(scores, PlayerScore{PlayerID: id, Wins: int64(e.Score)})
	}
	return scores, nil
}

func statsKey(playerID string) string {
	return fmt.Sprintf("stats:%s", playerID)
}
