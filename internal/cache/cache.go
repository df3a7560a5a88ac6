// Package cache provides caching for rendered plots and extracted
// tables.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

// Config contains cache configuration.
type Config struct {
	PlotCacheSizeMB int
	PlotTTL         time.Duration
	TableCacheSize  int
}

// Manager manages the plot and table caches. Plot artifacts (PNG) are
// already compressed and go into bigcache as-is; table payloads (JSON)
// compress well and are stored zstd-compressed in the LRU.
type Manager struct {
	plotCache  *bigcache.BigCache
	tableCache *lru.Cache[string, []byte]

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	plotCacheConfig := bigcache.Config{
		Shards:             1024,
		LifeWindow:         cfg.PlotTTL,
		CleanWindow:        cfg.PlotTTL / 2,
		MaxEntriesInWindow: 100000,
		MaxEntrySize:       512 * 1024, // 512KB per plot
		HardMaxCacheSize:   cfg.PlotCacheSizeMB,
		Verbose:            false,
	}

	plotCache, err := bigcache.New(context.Background(), plotCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create plot cache: %w", err)
	}

	tableCache, err := lru.New[string, []byte](cfg.TableCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create table cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Manager{
		plotCache:  plotCache,
		tableCache: tableCache,
		encoder:    encoder,
		decoder:    decoder,
	}, nil
}

// GetPlot retrieves a rendered plot from cache.
func (m *Manager) GetPlot(key string) ([]byte, bool) {
	data, err := m.plotCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetPlot stores a rendered plot in cache.
func (m *Manager) SetPlot(key string, data []byte) error {
	return m.plotCache.Set(key, data)
}

// GetTable retrieves a table payload from cache.
func (m *Manager) GetTable(key string) ([]byte, bool) {
	compressed, ok := m.tableCache.Get(key)
	if !ok {
		return nil, false
	}
	data, err := m.decoder.DecodeAll(compressed, nil)
	if err != nil {
		// A corrupt entry is dropped, not surfaced.
		m.tableCache.Remove(key)
		return nil, false
	}
	return data, true
}

// SetTable stores a table payload in cache.
func (m *Manager) SetTable(key string, data []byte) {
	m.tableCache.Add(key, m.encoder.EncodeAll(data, nil))
}

// PlotKey generates a cache key for a plot request. Parameters are
// hashed in sorted key order so equivalent requests share an entry.
func PlotKey(dataset, kind string, params map[string]string) string {
	base := fmt.Sprintf("plot:%s:%s", dataset, kind)
	if len(params) == 0 {
		return base
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(base))
	for _, k := range keys {
		h.Write([]byte(k + "=" + params[k] + ";"))
	}
	return base + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// TableKey generates a cache key for a data-out table payload.
func TableKey(dataset, kind string, params map[string]string) string {
	return "table:" + PlotKey(dataset, kind, params)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"plot_cache_len":  m.plotCache.Len(),
		"plot_cache_cap":  m.plotCache.Capacity(),
		"table_cache_len": m.tableCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	m.encoder.Close()
	m.decoder.Close()
	return m.plotCache.Close()
}
