package workers

import (
	"context"
	"time"

	"multiworld/pkg/log"
	"multiworld/pkg/persistence"
	"multiworld/pkg/registry"
)

const (
	DefaultSweepInterval = 1 * time.Minute
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultRetention     = 30 * 24 * time.Hour
)

// ConnectionCloser closes live connections by id when their game is
// evicted from memory.
type ConnectionCloser interface {
	CloseConnections(connectionIDs []string)
}

// LifecycleSweeper periodically flushes every in-memory game to the
// persistence gateway, evicts games that have been idle past the
// timeout, and prunes expired games from storage. Each phase runs
// independently so a failure in one does not starve the others.
type LifecycleSweeper struct {
	registry    *registry.Registry
	gateway     *persistence.Gateway
	closer      ConnectionCloser
	interval    time.Duration
	idleTimeout time.Duration
	retention   time.Duration
	now         func() time.Time
	onExpired   func(gameIDs []string)
}

type NewLifecycleSweeperOptions struct {
	Registry    *registry.Registry
	Gateway     *persistence.Gateway
	Closer      ConnectionCloser
	Interval    time.Duration
	IdleTimeout time.Duration
	Retention   time.Duration
	// OnExpired is invoked with the ids of games pruned from storage.
	OnExpired func(gameIDs []string)
}

func NewLifecycleSweeper(opts NewLifecycleSweeperOptions) *LifecycleSweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSweepInterval
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &LifecycleSweeper{
		registry:    opts.Registry,
		gateway:     opts.Gateway,
		closer:      opts.Closer,
		interval:    opts.Interval,
		idleTimeout: opts.IdleTimeout,
		retention:   opts.Retention,
		now:         time.Now,
		onExpired:   opts.OnExpired,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *LifecycleSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one flush-evict-prune pass and returns the ids of the
// games evicted from memory.
func (s *LifecycleSweeper) Sweep(ctx context.Context) []string {
	evicted := s.flushAndEvict()
	s.prune(ctx)
	return evicted
}

func (s *LifecycleSweeper) flushAndEvict() []string {
	now := s.now()
	var evicted []string
	for _, g := range s.registry.Games() {
		s.gateway.SaveGameState(g.StateSnapshot())
		if now.Sub(g.LastActivity()) < s.idleTimeout {
			continue
		}
		gameID := g.ID()
		if s.closer != nil {
			s.closer.CloseConnections(s.registry.RemoveGameConnections(gameID))
		}
		s.registry.Remove(gameID)
		evicted = append(evicted, gameID)
		log.Info("Evicted idle game %s", gameID)
	}
	return evicted
}

func (s *LifecycleSweeper) prune(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	expired, err := s.gateway.PruneOlderThan(ctx, cutoff)
	if err != nil {
		log.Error("Failed to prune expired games: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	log.Info("Pruned %d expired games", len(expired))
	if s.onExpired != nil {
		s.onExpired(expired)
	}
}
