package persistence

import (
	"context"
	"fmt"
	"time"

	gametypes "multiworld/pkg/game/types"
	"multiworld/pkg/log"
	"multiworld/pkg/repositories"
)

const DefaultQueueSize = 256

type writeOp struct {
	name string
	run  func(ctx context.Context) error
}

// Gateway routes durable writes to a repository without blocking the
// game loop. Writes are queued and applied by a single worker; a write
// that fails is logged and dropped, since the in-memory registry stays
// authoritative either way. Reads (Load, PruneOlderThan) are synchronous.
//
// A Gateway constructed with a nil repository is disabled: every write
// is a no-op and Load reports not found.
type Gateway struct {
	repo repositories.Repository
	ops  chan writeOp
}

func NewGateway(repo repositories.Repository) *Gateway {
	return &Gateway{
		repo: repo,
		ops:  make(chan writeOp, DefaultQueueSize),
	}
}

func (g *Gateway) Enabled() bool {
	return g.repo != nil
}

// Start runs the write worker until ctx is cancelled. Pending queued
// writes are drained before returning so a shutdown does not lose the
// tail of the queue.
func (g *Gateway) Start(ctx context.Context) {
	if !g.Enabled() {
		return
	}
	for {
		select {
		case op := <-g.ops:
			g.apply(op)
		case <-ctx.Done():
			for {
				select {
				case op := <-g.ops:
					g.apply(op)
				default:
					return
				}
			}
		}
	}
}

func (g *Gateway) apply(op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := op.run(ctx); err != nil {
		log.Error("Failed to apply %s: %v", op.name, err)
	}
}

func (g *Gateway) enqueue(op writeOp) {
	select {
	case g.ops <- op:
	default:
		log.Error("Write queue full, dropping %s", op.name)
	}
}

// SaveGameState persists a game snapshot with its roster. Tracked world
// entries are not written here; they flow through SavePlayerWorld as diffs.
func (g *Gateway) SaveGameState(state *gametypes.GameState) {
	if !g.Enabled() || !state.Persist {
		return
	}
	for _, p := range state.Players {
		p.GenerationData = EncodeGenerationData(p.GenerationData)
	}
	g.enqueue(writeOp{
		name: fmt.Sprintf("game save %s", state.ID),
		run: func(ctx context.Context) error {
			return g.repo.UpsertGame(ctx, state)
		},
	})
}

func (g *Gateway) SavePlayerState(gameID string, player *gametypes.PlayerState, persist bool) {
	if !g.Enabled() || !persist {
		return
	}
	player.GenerationData = EncodeGenerationData(player.GenerationData)
	g.enqueue(writeOp{
		name: fmt.Sprintf("player save %s/%s", gameID, player.ID),
		run: func(ctx context.Context) error {
			return g.repo.UpsertPlayer(ctx, gameID, player)
		},
	})
}

func (g *Gateway) SavePlayerWorld(gameID, playerID string, diff *gametypes.WorldDiff, persist bool) {
	if !g.Enabled() || !persist || !diff.HasChanges() {
		return
	}
	g.enqueue(writeOp{
		name: fmt.Sprintf("world save %s/%s", gameID, playerID),
		run: func(ctx context.Context) error {
			return g.repo.SavePlayerWorld(ctx, gameID, playerID, diff)
		},
	})
}

func (g *Gateway) DeletePlayerState(gameID, playerID string, persist bool) {
	if !g.Enabled() || !persist {
		return
	}
	g.enqueue(writeOp{
		name: fmt.Sprintf("player delete %s/%s", gameID, playerID),
		run: func(ctx context.Context) error {
			return g.repo.DeletePlayer(ctx, gameID, playerID)
		},
	})
}

// Load fetches a persisted game for cold-start recovery.
func (g *Gateway) Load(ctx context.Context, gameID string) (*gametypes.GameState, error) {
	if !g.Enabled() {
		return nil, &repositories.ErrNotFound{}
	}
	state, err := g.repo.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, p := range state.Players {
		data, err := DecodeGenerationData(p.GenerationData)
		if err != nil {
			return nil, fmt.Errorf("failed to decode generation data for player %s: %v", p.ID, err)
		}
		p.GenerationData = data
	}
	return state, nil
}

// PruneOlderThan deletes games whose last activity predates the cutoff
// and reports which ones were removed.
func (g *Gateway) PruneOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	if !g.Enabled() {
		return nil, nil
	}
	return g.repo.DeleteGamesOlderThan(ctx, cutoff)
}
