package emissions

import (
	"fmt"
	"time"
)

func (p *provider) tableCacheKey() string {
	return fmt.Sprintf("table:%s:%d", p.cfg.Indicator, p.cfg.SourceID)
}

func (p *provider) getCachedTable() *Table {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	cached := p.cache.Get(p.tableCacheKey())
	if cached == nil {
		return nil
	}
	return cached.Value()
}

func (p *provider) setCachedTable(table *Table, ttl time.Duration) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cache.Set(p.tableCacheKey(), table, ttl)
}
