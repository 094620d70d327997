package session

import (
	"context"
	"time"

	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec runs the sweep every ten minutes.
const DefaultSweepSpec = "@every 10m"

// Sweeper periodically drops expired sessions from the cache and the store.
type Sweeper struct {
	cron    *cron.Cron
	cache   *Cache
	store   port.SessionStore
	log     *logging.Logger
	nowFunc func() time.Time
}

// NewSweeper schedules the sweep on spec (standard cron or @every syntax).
func NewSweeper(spec string, cache *Cache, store port.SessionStore, log *logging.Logger) (*Sweeper, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if spec == "" {
		spec = DefaultSweepSpec
	}

	s := &Sweeper{
		cron:    cron.New(),
		cache:   cache,
		store:   store,
		log:     log,
		nowFunc: time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.nowFunc()
	evicted := s.cache.Sweep(now)

	var deleted int64
	if s.store != nil {
		n, err := s.store.DeleteExpiredSessions(ctx, now)
		if err != nil {
			s.log.Error("failed to delete expired sessions", "error", err)
		}
		deleted = n
	}

	if evicted > 0 || deleted > 0 {
		s.log.Info("expired sessions swept", "cache", evicted, "store", deleted)
	}
}
