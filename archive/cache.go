package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chiedza-labs/resurrect/restore"
)

// Cache deduplicates restoration work by content hash: the same upload is
// only processed once, which matters when the backend bills per scan. Any
// cache failure degrades to a miss.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache connects the dedup cache. An empty addr disables it: lookups
// always miss and stores are dropped.
func NewCache(addr string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{ttl: ttl, logger: logger.With("component", "dedup-cache")}
	if addr != "" {
		c.rdb = redis.NewClient(&redis.Options{Addr: addr})
	}
	return c
}

// Key derives the cache key from the uploaded bytes.
func (c *Cache) Key(data []byte) string {
	sum := sha256.Sum256(data)
	return "resurrect:result:" + hex.EncodeToString(sum[:])
}

type cachedResult struct {
	Segments          []restore.Segment `json:"segments"`
	OverallConfidence float64           `json:"overall_confidence"`
	ProcessingTimeMs  int64             `json:"processing_time_ms"`
	ArchiveID         string            `json:"archive_id,omitempty"`
}

// Get looks up a previous restoration of the same bytes.
func (c *Cache) Get(ctx context.Context, data []byte) (*restore.Document, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.Key(data)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache lookup failed", "error", err)
		}
		return nil, false
	}
	var cached cachedResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		c.logger.Warn("dropping corrupt cache entry", "error", err)
		return nil, false
	}
	return &restore.Document{
		Segments:          cached.Segments,
		OverallConfidence: cached.OverallConfidence,
		ProcessingTime:    time.Duration(cached.ProcessingTimeMs) * time.Millisecond,
		ArchiveID:         cached.ArchiveID,
	}, true
}

// Put stores a finished restoration under the content hash.
func (c *Cache) Put(ctx context.Context, data []byte, doc *restore.Document) {
	if c.rdb == nil || doc == nil {
		return
	}
	raw, err := json.Marshal(cachedResult{
		Segments:          doc.Segments,
		OverallConfidence: doc.OverallConfidence,
		ProcessingTimeMs:  doc.ProcessingTime.Milliseconds(),
		ArchiveID:         doc.ArchiveID,
	})
	if err != nil {
		c.logger.Warn("cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.Key(data), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "error", err)
	}
}
