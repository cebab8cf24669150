package cache

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

// ErrCacheMiss is returned by a Store when a key is absent or expired
var ErrCacheMiss = stdErrors.New("cache miss")

// Store is the key-value backend behind HistoryCache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// HistoryCache keeps recent handoff digests per patient. Cache failures are
// logged and treated as misses.
type HistoryCache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

type cachedHistory struct {
	Limit     int                       `json:"limit"`
	Summaries []entities.HandoffSummary `json:"summaries"`
}

// NewHistoryCache creates a history cache over store
func NewHistoryCache(store Store, ttl time.Duration, logger *zap.Logger) *HistoryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &HistoryCache{store: store, ttl: ttl, logger: logger}
}

func historyKey(patientID int64, version string) string {
	if version == "" {
		return fmt.Sprintf("handoff:history:%d", patientID)
	}
	return fmt.Sprintf("handoff:history:%d:%s", patientID, version)
}

func versionKey(patientID int64) string {
	return fmt.Sprintf("handoff:history:%d:version", patientID)
}

// version returns the patient's current cache generation, "" before the
// first invalidation
func (c *HistoryCache) version(ctx context.Context, patientID int64) (string, error) {
	raw, err := c.store.Get(ctx, versionKey(patientID))
	if stdErrors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Get returns cached digests when at least limit entries were requested when
// caching. The returned version must be passed to Set when filling a miss.
func (c *HistoryCache) Get(ctx context.Context, patientID int64, limit int) ([]entities.HandoffSummary, string, bool) {
	version, err := c.version(ctx, patientID)
	if err != nil {
		c.warn("⚠️ History cache read failed", patientID, err)
		return nil, "", false
	}

	raw, err := c.store.Get(ctx, historyKey(patientID, version))
	if err != nil {
		if !stdErrors.Is(err, ErrCacheMiss) {
			c.warn("⚠️ History cache read failed", patientID, err)
		}
		return nil, version, false
	}

	var entry cachedHistory
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, version, false
	}
	if entry.Limit < limit && len(entry.Summaries) >= entry.Limit {
		return nil, version, false
	}
	if len(entry.Summaries) > limit {
		entry.Summaries = entry.Summaries[:limit]
	}
	return entry.Summaries, version, true
}

// Set stores digests fetched with the given limit under the version read by
// Get. A fill that raced an Invalidate lands under a stale version and is
// never read.
func (c *HistoryCache) Set(ctx context.Context, patientID int64, version string, limit int, summaries []entities.HandoffSummary) {
	if summaries == nil {
		summaries = []entities.HandoffSummary{}
	}
	raw, err := json.Marshal(cachedHistory{Limit: limit, Summaries: summaries})
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, historyKey(patientID, version), raw, c.ttl); err != nil {
		c.warn("⚠️ History cache write failed", patientID, err)
	}
}

// Invalidate moves the patient to a fresh cache version and drops the
// current entry
func (c *HistoryCache) Invalidate(ctx context.Context, patientID int64) {
	old, err := c.version(ctx, patientID)
	if err != nil {
		c.warn("⚠️ History cache invalidation failed", patientID, err)
		return
	}
	// The version outlives every entry written under an earlier one.
	if err := c.store.Set(ctx, versionKey(patientID), []byte(uuid.NewString()), 2*c.ttl); err != nil {
		c.warn("⚠️ History cache invalidation failed", patientID, err)
		return
	}
	if err := c.store.Delete(ctx, historyKey(patientID, old)); err != nil {
		c.warn("⚠️ History cache invalidation failed", patientID, err)
	}
}

func (c *HistoryCache) warn(msg string, patientID int64, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, zap.Int64("patient_id", patientID), zap.Error(err))
	}
}
