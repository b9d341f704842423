package cache

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/config"
)

// Tiered is the two-tier read cache: a small bounded in-process tier in
// front of the shared store. The local tier answers hot reads without a
// network hop; the shared tier survives process restarts and is visible to
// every instance. Shared-tier failures are logged and degrade to a miss —
// the cache is a performance optimization, never a correctness dependency.
type Tiered struct {
	local     *xsync.MapOf[string, localEntry]
	shared    Store
	capacity  int
	localTTL  time.Duration
	sharedTTL time.Duration
	opTimeout time.Duration
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
}

type localEntry struct {
	value     []byte
	expiresAt time.Time
	storedAt  time.Time
}

// TieredParams collects the knobs for NewTieredWith.
type TieredParams struct {
	Capacity      int
	LocalTTL      time.Duration
	SharedTTL     time.Duration
	SweepInterval time.Duration
	OpTimeout     time.Duration
}

// NewTiered builds the two-tier cache from application config.
func NewTiered(lc fx.Lifecycle, cfg config.Config, shared Store, logger *zap.Logger) *Tiered {
	t := NewTieredWith(shared, logger, TieredParams{
		Capacity:      cfg.Cache.LocalCapacity,
		LocalTTL:      cfg.Cache.LocalTTL,
		SharedTTL:     cfg.Cache.SharedTTL,
		SweepInterval: cfg.Cache.SweepInterval,
		OpTimeout:     cfg.Cache.OpTimeout,
	})

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			t.Close()
			return nil
		},
	})

	return t
}

// NewTieredWith builds a two-tier cache with explicit parameters and starts
// the expiry sweeper. Callers own the Close.
func NewTieredWith(shared Store, logger *zap.Logger, p TieredParams) *Tiered {
	if p.Capacity <= 0 {
		p.Capacity = 256
	}
	if p.LocalTTL <= 0 {
		p.LocalTTL = time.Minute
	}
	if p.SharedTTL <= 0 {
		p.SharedTTL = 10 * time.Minute
	}
	if p.OpTimeout <= 0 {
		p.OpTimeout = 500 * time.Millisecond
	}

	t := &Tiered{
		local:     xsync.NewMapOf[string, localEntry](),
		shared:    shared,
		capacity:  p.Capacity,
		localTTL:  p.LocalTTL,
		sharedTTL: p.SharedTTL,
		opTimeout: p.OpTimeout,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	interval := p.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go t.sweep(interval)

	return t
}

// Get checks the local tier first, then the shared tier. A shared hit
// repopulates the local tier with the shorter local TTL. Returns
// ErrCacheMiss when neither tier holds a fresh value.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	now := time.Now()
	if entry, ok := t.local.Load(key); ok {
		if entry.expiresAt.After(now) {
			return entry.value, nil
		}
		t.local.Delete(key)
	}

	opCtx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	value, err := t.shared.Get(opCtx, key)
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		if t.logger != nil {
			t.logger.Warn("shared cache read failed; treating as miss", zap.String("key", key), zap.Error(err))
		}
		return nil, ErrCacheMiss
	}

	t.setLocal(key, value)
	return value, nil
}

// Set writes both tiers. Shared-tier failures are logged and swallowed.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) {
	t.setLocal(key, value)

	opCtx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if err := t.shared.Set(opCtx, key, value, t.sharedTTL); err != nil {
		if t.logger != nil {
			t.logger.Warn("shared cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Invalidate removes keys from both tiers. Mutation paths call this before
// reporting success so listing reads never see stale membership.
func (t *Tiered) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		t.local.Delete(key)
	}

	opCtx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	for _, key := range keys {
		if err := t.shared.Delete(opCtx, key); err != nil {
			if t.logger != nil {
				t.logger.Warn("shared cache delete failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

// InvalidatePattern removes every key matching a glob from both tiers.
func (t *Tiered) InvalidatePattern(ctx context.Context, pattern string) {
	re, err := globToRegexp(pattern)
	if err == nil {
		t.local.Range(func(key string, _ localEntry) bool {
			if re.MatchString(key) {
				t.local.Delete(key)
			}
			return true
		})
	}

	opCtx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if err := t.shared.DeletePattern(opCtx, pattern); err != nil {
		if t.logger != nil {
			t.logger.Warn("shared cache pattern delete failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// LocalLen reports the current local tier size.
func (t *Tiered) LocalLen() int {
	return t.local.Size()
}

// Close stops the expiry sweeper.
func (t *Tiered) Close() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
		<-t.done
	}
}

func (t *Tiered) setLocal(key string, value []byte) {
	if t.local.Size() >= t.capacity {
		if _, exists := t.local.Load(key); !exists {
			t.evictOldest()
		}
	}
	now := time.Now()
	t.local.Store(key, localEntry{
		value:     value,
		expiresAt: now.Add(t.localTTL),
		storedAt:  now,
	})
}

// evictOldest drops the entry with the earliest store time. The local tier
// is small, so the linear scan is fine.
func (t *Tiered) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	t.local.Range(func(key string, entry localEntry) bool {
		if !found || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			found = true
		}
		return true
	})
	if found {
		t.local.Delete(oldestKey)
	}
}

func (t *Tiered) sweep(interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			t.local.Range(func(key string, entry localEntry) bool {
				if !entry.expiresAt.After(now) {
					t.local.Delete(key)
				}
				return true
			})
		}
	}
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
