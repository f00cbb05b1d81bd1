package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// wildcardIntent keys retrievals that did not filter by intent.
const wildcardIntent = "*"

// RetrievalEntry memoizes one (user, topic, intent) retrieval: the query
// embedding and the ranked post IDs per corpus. IDs, not content, are
// cached so a hit re-resolves rows and never serves stale text.
type RetrievalEntry struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	UserPostIDs    []uint    `json:"user_post_ids"`
	ViralPostIDs   []uint    `json:"viral_post_ids"`
	HitCount       int       `json:"hit_count"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Valid reports whether the entry may still be served at the given instant.
func (e *RetrievalEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// RetrievalCache stores retrieval entries in Redis under a stable hash of
// the query identity. Reads and writes are best-effort: callers log
// returned errors and proceed as if the cache missed.
type RetrievalCache struct {
	client *redisv9.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRetrievalCache(client *redisv9.Client, ttl time.Duration) *RetrievalCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RetrievalCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Key returns the deterministic hash identifying one retrieval query.
func Key(userID uint, topic string, intent string) string {
	if strings.TrimSpace(intent) == "" {
		intent = wildcardIntent
	}
	payload := fmt.Sprintf("%d|%s|%s", userID, strings.ToLower(strings.TrimSpace(topic)), intent)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Get returns the entry for key if present and unexpired. A hit bumps the
// hit counter in place; the counter write is itself best-effort.
func (c *RetrievalCache) Get(ctx context.Context, key string) (*RetrievalEntry, bool, error) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get retrieval entry failed: %w", err)
	}

	var entry RetrievalEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("unmarshal retrieval entry failed: %w", err)
	}
	if !entry.Valid(c.now()) {
		// Expired entries count as misses; the stale value is overwritten
		// by the next Put rather than actively swept.
		return nil, false, nil
	}

	entry.HitCount++
	if payload, err := json.Marshal(&entry); err == nil {
		_ = c.client.Set(ctx, c.redisKey(key), payload, redisv9.KeepTTL).Err()
	}
	return &entry, true, nil
}

// Put upserts the entry for key. An existing entry is overwritten whole:
// the hit counter restarts at zero and the expiry window restarts from
// now. Resetting the counter on overwrite is the chosen policy — a
// regenerated entry is treated as fresh.
func (c *RetrievalCache) Put(ctx context.Context, key string, queryEmbedding []float32, userPostIDs, viralPostIDs []uint) error {
	now := c.now()
	entry := RetrievalEntry{
		QueryEmbedding: queryEmbedding,
		UserPostIDs:    userPostIDs,
		ViralPostIDs:   viralPostIDs,
		HitCount:       0,
		CreatedAt:      now,
		ExpiresAt:      now.Add(c.ttl),
	}
	payload, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal retrieval entry failed: %w", err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set retrieval entry failed: %w", err)
	}
	return nil
}

func (c *RetrievalCache) redisKey(key string) string {
	return "rag:retrieve:" + key
}
