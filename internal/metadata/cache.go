package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// ErrUnavailable is returned when the stock table could not be loaded
var ErrUnavailable = errors.New("stock metadata unavailable")

// State is the lifecycle stage of the cache
type State int32

const (
	StateUninitialized State = iota
	StatePopulating
	StatePopulated
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePopulating:
		return "populating"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Provider fetches the listed-stock metadata table
type Provider interface {
	StockBasic(ctx context.Context) ([]contracts.StockInfo, error)
}

// Store is an optional second-level cache (Redis)
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Filter selects stocks by exact attribute match. Empty fields match everything.
type Filter struct {
	Industry string
	Area     string
}

func (f Filter) match(info contracts.StockInfo) bool {
	if f.Industry != "" && info.Industry != f.Industry {
		return false
	}
	if f.Area != "" && info.Area != f.Area {
		return false
	}
	return true
}

// Cache is the process-wide stock metadata cache.
// At most one fetch is in flight. A provider failure is final until Refresh;
// a fetch cut short by the caller's context leaves the cache uninitialized.
// ⭐ SSOT: 종목 메타데이터 조회는 이 캐시를 통해서만
type Cache struct {
	provider Provider
	store    Store
	key      string
	ttl      time.Duration
	logger   *logger.Logger

	fetchMu sync.Mutex

	mu     sync.RWMutex
	state  State
	infos  []contracts.StockInfo
	byCode map[string]contracts.StockInfo
	err    error
}

// NewCache creates a metadata cache. store may be nil.
func NewCache(provider Provider, store Store, key string, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		provider: provider,
		store:    store,
		key:      key,
		ttl:      ttl,
		logger:   log,
	}
}

// Lookup returns the metadata of a code, populating the cache on first use.
// Codes are matched on ts_code first, then on the bare symbol.
func (c *Cache) Lookup(ctx context.Context, code string) (contracts.StockInfo, bool) {
	if !c.ensure(ctx) {
		return contracts.StockInfo{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.byCode[code]
	return info, ok
}

// Stocks returns the cached stocks matching filter, in provider order
func (c *Cache) Stocks(ctx context.Context, filter Filter) ([]contracts.StockInfo, error) {
	if !c.ensure(ctx) {
		return nil, c.unavailable(ctx)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []contracts.StockInfo{}
	for _, info := range c.infos {
		if filter.match(info) {
			out = append(out, info)
		}
	}
	return out, nil
}

// Refresh drops the stored table and reloads it from the provider.
// On error the previous contents stay in place.
func (c *Cache) Refresh(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, c.key); err != nil {
			c.logger.WithError(err).Warn("Metadata store delete failed")
		}
	}

	infos, err := c.provider.StockBasic(ctx)
	if err != nil {
		return fmt.Errorf("refresh stock metadata: %w", err)
	}
	c.save(ctx, infos)
	c.load(infos, "provider")
	return nil
}

// State returns the current lifecycle state
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the fetch error of a failed cache
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateFailed {
		return nil
	}
	return c.err
}

// Len returns the number of cached codes (ts_code and symbol keys)
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byCode)
}

// ensure populates the cache once and reports whether it holds data
func (c *Cache) ensure(ctx context.Context) bool {
	if done, ok := c.settled(); done {
		return ok
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	if done, ok := c.settled(); done {
		return ok
	}
	c.populate(ctx)

	return c.State() == StatePopulated
}

func (c *Cache) settled() (done, ok bool) {
	switch c.State() {
	case StatePopulated:
		return true, true
	case StateFailed:
		return true, false
	default:
		return false, false
	}
}

func (c *Cache) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Cache) populate(ctx context.Context) {
	c.setState(StatePopulating)

	infos, source, err := c.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.setState(StateUninitialized)
			c.logger.WithError(err).Warn("Stock metadata fetch interrupted, next lookup retries")
			return
		}

		c.mu.Lock()
		c.err = err
		c.state = StateFailed
		c.mu.Unlock()
		c.logger.WithError(err).Error("Stock metadata unavailable, exports will have empty columns")
		return
	}

	c.load(infos, source)
}

func (c *Cache) load(infos []contracts.StockInfo, source string) {
	byCode := make(map[string]contracts.StockInfo, len(infos)*2)
	for _, info := range infos {
		if info.Symbol != "" {
			if _, exists := byCode[info.Symbol]; !exists {
				byCode[info.Symbol] = info
			}
		}
	}
	// ts_code entries win over bare symbols
	for _, info := range infos {
		if info.TSCode != "" {
			byCode[info.TSCode] = info
		}
	}

	c.mu.Lock()
	c.infos = infos
	c.byCode = byCode
	c.err = nil
	c.state = StatePopulated
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"stocks": len(infos),
		"source": source,
	}).Info("Stock metadata loaded")
}

func (c *Cache) unavailable(ctx context.Context) error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ErrUnavailable
}

func (c *Cache) fetch(ctx context.Context) ([]contracts.StockInfo, string, error) {
	if c.store != nil {
		var cached []contracts.StockInfo
		found, err := c.store.Get(ctx, c.key, &cached)
		if err != nil {
			c.logger.WithError(err).Warn("Metadata store read failed")
		} else if found && len(cached) > 0 {
			return cached, "store", nil
		}
	}

	infos, err := c.provider.StockBasic(ctx)
	if err != nil {
		return nil, "", err
	}
	c.save(ctx, infos)

	return infos, "provider", nil
}

func (c *Cache) save(ctx context.Context, infos []contracts.StockInfo) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, c.key, infos, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Metadata store write failed")
	}
}
