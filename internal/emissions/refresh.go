package emissions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Refresher periodically rebuilds the provider's table so dashboard requests
// rarely pay the upstream fetch latency.
type Refresher struct {
	log *slog.Logger
	cfg *RefresherConfig
}

type RefresherConfig struct {
	Logger   *slog.Logger
	Provider Provider
	Clock    clockwork.Clock
	Interval time.Duration
}

func (c *RefresherConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Provider == nil {
		return errors.New("provider is required")
	}
	if c.Interval <= 0 {
		return errors.New("refresh interval must be greater than 0")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

func NewRefresher(cfg *RefresherConfig) (*Refresher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Refresher{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Run refreshes once immediately, then on every interval tick until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.log.Info("refresher: starting", "interval", r.cfg.Interval)

	ticker := r.cfg.Clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresher: context done, stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if err := r.cfg.Provider.Refresh(ctx); err != nil {
		r.log.Warn("refresher: refresh failed, keeping previous table", "error", err)
		return
	}
	r.log.Debug("refresher: table refreshed")
}
