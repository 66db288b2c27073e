package emissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/climatelabs/carbontracker/internal/metrics"
	"github.com/climatelabs/carbontracker/internal/worldbank"
)

const (
	// DefaultIndicator is the CO2 emissions series in metric tons per
	// capita.
	DefaultIndicator = "EN.ATM.CO2E.PC"

	// DefaultSourceID selects the World Bank database that carries the
	// per-capita CO2 series.
	DefaultSourceID = 75

	defaultTableCacheTTL  = 6 * time.Hour
	defaultEmptyResultTTL = 5 * time.Minute
)

// Source fetches raw observation pages from the statistical API.
type Source interface {
	GetObservations(ctx context.Context, query worldbank.ObservationsQuery) (*worldbank.ObservationsPage, error)
}

type Provider interface {
	// GetTable returns the current emissions table, building it on a cache
	// miss. On failure the error wraps ErrSourceUnavailable,
	// ErrMalformedResponse or ErrEmptyResult.
	GetTable(ctx context.Context) (*Table, error)

	// Refresh rebuilds the table and replaces the cached copy. A failed
	// rebuild leaves the previous table in place until its TTL lapses.
	Refresh(ctx context.Context) error

	// Invalidate drops the cached table so the next GetTable refetches.
	Invalidate()
}

type provider struct {
	log *slog.Logger
	cfg *ProviderConfig

	cache   *ttlcache.Cache[string, *Table]
	cacheMu sync.RWMutex

	flight singleflight.Group
}

type ProviderConfig struct {
	Logger *slog.Logger
	Source Source

	Indicator string
	SourceID  int
	PerPage   int

	TableCacheTTL  time.Duration
	EmptyResultTTL time.Duration

	Normalize NormalizeConfig
}

func (c *ProviderConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Source == nil {
		return errors.New("source is required")
	}
	if c.Indicator == "" {
		c.Indicator = DefaultIndicator
	}
	if c.SourceID == 0 {
		c.SourceID = DefaultSourceID
	}
	if c.PerPage == 0 {
		c.PerPage = worldbank.DefaultPerPage
	}
	if c.TableCacheTTL == 0 {
		c.TableCacheTTL = defaultTableCacheTTL
	}
	if c.EmptyResultTTL == 0 {
		c.EmptyResultTTL = defaultEmptyResultTTL
	}
	return nil
}

func NewProvider(cfg *ProviderConfig) (*provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Table](cfg.TableCacheTTL),
	)

	return &provider{
		log:   cfg.Logger,
		cfg:   cfg,
		cache: cache,
	}, nil
}

func (p *provider) GetTable(ctx context.Context) (*Table, error) {
	if table := p.getCachedTable(); table != nil {
		metrics.TableCacheHitsTotal.Inc()
		return p.tableResult(table)
	}
	metrics.TableCacheMissesTotal.Inc()

	result, err, _ := p.flight.Do(p.tableCacheKey(), func() (any, error) {
		// A concurrent caller may have finished a build while this one
		// waited for the flight slot.
		if table := p.getCachedTable(); table != nil {
			return table, nil
		}
		return p.buildTable(ctx)
	})
	if err != nil {
		return nil, err
	}
	return p.tableResult(result.(*Table))
}

func (p *provider) Refresh(ctx context.Context) error {
	// Shares the flight key with GetTable so a refresh and a miss-triggered
	// build collapse into a single upstream fetch.
	_, err, _ := p.flight.Do(p.tableCacheKey(), func() (any, error) {
		return p.buildTable(ctx)
	})
	return err
}

func (p *provider) Invalidate() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cache.Delete(p.tableCacheKey())
	p.log.Debug("Invalidated emissions table cache", "indicator", p.cfg.Indicator)
}

// tableResult maps an empty table to its sentinel so cached and freshly
// built empties surface the same way.
func (p *provider) tableResult(table *Table) (*Table, error) {
	if table.Empty() {
		return nil, fmt.Errorf("%w: indicator %s from source %d", ErrEmptyResult, p.cfg.Indicator, p.cfg.SourceID)
	}
	return table, nil
}

func (p *provider) buildTable(ctx context.Context) (*Table, error) {
	start := time.Now()

	page, err := p.cfg.Source.GetObservations(ctx, worldbank.ObservationsQuery{
		Indicator: p.cfg.Indicator,
		Source:    p.cfg.SourceID,
		PerPage:   p.cfg.PerPage,
	})
	if err != nil {
		metrics.TableBuildsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, worldbank.ErrMalformedEnvelope) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	records := Normalize(page.Observations, p.cfg.Normalize)
	table := NewTable(records)

	if table.Empty() {
		// Cache the empty table briefly so a misbehaving source is not
		// refetched on every request.
		p.setCachedTable(table, p.cfg.EmptyResultTTL)
		metrics.TableBuildsTotal.WithLabelValues("empty").Inc()
		p.log.Warn("Built empty emissions table",
			"observations", len(page.Observations),
			"indicator", p.cfg.Indicator)
		return p.tableResult(table)
	}

	p.setCachedTable(table, p.cfg.TableCacheTTL)
	metrics.TableBuildsTotal.WithLabelValues("ok").Inc()
	metrics.TableBuildDuration.Observe(time.Since(start).Seconds())
	metrics.TableRowsCount.Set(float64(table.Len()))

	p.log.Info("Built emissions table",
		"observations", len(page.Observations),
		"rows", table.Len(),
		"indicator", p.cfg.Indicator,
		"duration", time.Since(start))

	return table, nil
}
