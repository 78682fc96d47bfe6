// building_cache.go — LRU-кэш списка активных зданий с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	buildingCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expedientes_building_cache_hits_total",
		Help: "Общее количество попаданий в кэш списка зданий.",
	})
	buildingCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expedientes_building_cache_misses_total",
		Help: "Общее количество промахов кэша списка зданий.",
	})
)

// activeKey — ключ списка активных зданий.
const activeKey = "active"

// BuildingOptionsCache — кэш вариантов выбора здания. Сбрасывается
// при любом изменении справочника.
type BuildingOptionsCache struct {
	cache *expirable.LRU[string, []model.Building]
}

// NewBuildingOptionsCache создаёт кэш с указанным размером и TTL.
func NewBuildingOptionsCache(maxSize int, ttl time.Duration) *BuildingOptionsCache {
	return &BuildingOptionsCache{
		cache: expirable.NewLRU[string, []model.Building](maxSize, nil, ttl),
	}
}

// Get возвращает копию списка активных зданий при hit.
func (c *BuildingOptionsCache) Get() ([]model.Building, bool) {
	rows, ok := c.cache.Get(activeKey)
	if !ok {
		buildingCacheMissesTotal.Inc()
		return nil, false
	}
	buildingCacheHitsTotal.Inc()
	out := make([]model.Building, len(rows))
	copy(out, rows)
	return out, true
}

// Set сохраняет копию списка активных зданий.
func (c *BuildingOptionsCache) Set(rows []model.Building) {
	cp := make([]model.Building, len(rows))
	copy(cp, rows)
	c.cache.Add(activeKey, cp)
}

// Invalidate сбрасывает кэш.
func (c *BuildingOptionsCache) Invalidate() {
	c.cache.Purge()
}
