// Package cache implements the progress cache (spec.md §4.G): a
// Redis-backed record of per-shard and per-game ingest progress. The
// namespaces, field layout, and atomicity contract follow spec.md and its
// Rust original (observer-consumer/src/cache.rs) exactly; the client
// itself (github.com/redis/go-redis/v9) is an out-of-pack ecosystem
// dependency since no example repo in the retrieval pack talks to Redis
// (see DESIGN.md).
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gustav87/flo/internal/errs"
	"github.com/gustav87/flo/internal/logging"
)

const (
	shardKeyPrefix = "flo_observer:shard:"
	gameSetKey     = "flo_observer:games"
	gameKeyPrefix  = "flo_observer:game:"

	fieldFinishedSeqNumber = "finished_seq_number"
	fieldShardID           = "shard_id"
	fieldFinishedSeqID     = "finished_seq_id"
)

// GameState is the decoded result of get_game_state: the game's owning
// shard and its finished-sequence-id high-water mark.
type GameState struct {
	ShardID       string
	FinishedSeqID uint32
}

// Cache wraps a *redis.Client. The client is already connection-pooled
// and safe for concurrent use, so a Cache is cheap to share across
// goroutines by passing the same pointer (mirroring the Rust original's
// "shareable by cheap clone" ConnectionManager contract).
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New wraps an existing *redis.Client. Callers own the client's lifecycle
// (construction via redis.NewClient, and Close).
func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logging.Default(logger).With("component", "cache"),
	}
}

func shardKey(shardID string) string { return shardKeyPrefix + shardID }
func gameKey(gameID int32) string    { return gameKeyPrefix + fmt.Sprint(gameID) }

func encodeGameID(gameID int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(gameID)) //nolint:gosec // G115: round-trips through decodeGameID
	return buf
}

func decodeGameID(b []byte) (int32, bool) {
	v, ok := decodeU32(b)
	if !ok {
		return 0, false
	}
	return int32(v), true //nolint:gosec // G115: encoded by encodeGameID from an int32
}

func encodeU32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

func decodeU32(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// GetShardFinishedSeq fetches flo_observer:shard:<shard>'s finished_seq_number
// field. It returns ("", false, nil) if the field is unset.
func (c *Cache) GetShardFinishedSeq(ctx context.Context, shardID string) (string, bool, error) {
	v, err := c.client.HGet(ctx, shardKey(shardID), fieldFinishedSeqNumber).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.CacheIo, err)
	}
	return v, true, nil
}

// SetShardFinishedSeq sets flo_observer:shard:<shard>'s finished_seq_number field.
func (c *Cache) SetShardFinishedSeq(ctx context.Context, shardID, value string) error {
	if err := c.client.HSet(ctx, shardKey(shardID), fieldFinishedSeqNumber, value).Err(); err != nil {
		return errs.Wrap(errs.CacheIo, err)
	}
	return nil
}

// AddGame atomically adds gameID to the game set and creates its game hash
// with shard_id set, via a single transactional pipeline (SADD + HSET).
func (c *Cache) AddGame(ctx context.Context, gameID int32, shardID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, gameSetKey, encodeGameID(gameID))
		pipe.HSet(ctx, gameKey(gameID), fieldShardID, shardID)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.CacheIo, err)
	}
	return nil
}

// RemoveGame atomically removes gameID from the game set and deletes its
// game hash, via a single transactional pipeline (SREM + DEL).
func (c *Cache) RemoveGame(ctx context.Context, gameID int32) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, gameSetKey, encodeGameID(gameID))
		pipe.Del(ctx, gameKey(gameID))
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.CacheIo, err)
	}
	return nil
}

// ListGames returns every game id currently in the game set. Malformed
// (non-4-byte) members are silently dropped, for forward compatibility.
func (c *Cache) ListGames(ctx context.Context) ([]int32, error) {
	members, err := c.client.SMembers(ctx, gameSetKey).Result()
	if err != nil {
		return nil, errs.Wrap(errs.CacheIo, err)
	}
	games := make([]int32, 0, len(members))
	for _, m := range members {
		id, ok := decodeGameID([]byte(m))
		if !ok {
			continue
		}
		games = append(games, id)
	}
	return games, nil
}

// SetGameFinishedSeqID sets gameID's finished_seq_id field to the little-endian
// encoding of v.
func (c *Cache) SetGameFinishedSeqID(ctx context.Context, gameID int32, v uint32) error {
	if err := c.client.HSet(ctx, gameKey(gameID), fieldFinishedSeqID, encodeU32(v)).Err(); err != nil {
		return errs.Wrap(errs.CacheIo, err)
	}
	return nil
}

// GetGameState fetches gameID's shard_id and finished_seq_id fields. It
// returns (nil, nil) — not an error — if finished_seq_id has not yet been
// set (callers must treat that as "no progress yet", not as game absence),
// per spec.md's get_game_state contract.
func (c *Cache) GetGameState(ctx context.Context, gameID int32) (*GameState, error) {
	vals, err := c.client.HMGet(ctx, gameKey(gameID), fieldShardID, fieldFinishedSeqID).Result()
	if err != nil {
		return nil, errs.Wrap(errs.CacheIo, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, nil
	}
	shardID, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	seqRaw, ok := vals[1].(string)
	if !ok {
		return nil, nil
	}
	seqID, ok := decodeU32([]byte(seqRaw))
	if !ok {
		return nil, nil
	}
	return &GameState{ShardID: shardID, FinishedSeqID: seqID}, nil
}
