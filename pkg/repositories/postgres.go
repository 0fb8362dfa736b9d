package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	gametypes "multiworld/pkg/game/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and verifies the connection.
// The caller is responsible for calling Close() on the repository. The schema
// is expected to be provisioned; see migrations/.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close(_ context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) UpsertGame(ctx context.Context, state *gametypes.GameState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `
	INSERT INTO games (id, url, version, type, status, created_at, last_activity_at, seed, validation_hash, persist, send_items_on_complete)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
		status = $5, last_activity_at = $7, seed = $8, validation_hash = $9;
	`
	_, err = tx.Exec(ctx, q, state.ID, state.URL, state.Version, state.Type, state.Status,
		state.CreatedAt, state.LastActivityAt, state.Seed, state.ValidationHash,
		state.Persist, state.SendItemsOnComplete)
	if err != nil {
		return fmt.Errorf("failed to upsert game %s: %v", state.ID, err)
	}

	for _, p := range state.Players {
		if err := upsertPlayerTx(ctx, tx, state.ID, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func upsertPlayerTx(ctx context.Context, tx pgx.Tx, gameID string, p *gametypes.PlayerState) error {
	q := `
	INSERT INTO players (game_id, id, key, name, phonetic_name, world_id, config, additional_data, generation_data, is_admin, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (game_id, id) DO UPDATE SET
		phonetic_name = $5, world_id = $6, config = $7, additional_data = $8,
		generation_data = $9, is_admin = $10, status = $11;
	`
	_, err := tx.Exec(ctx, q, gameID, p.ID, p.Key, p.Name, p.PhoneticName, p.WorldID,
		p.Config, p.AdditionalData, p.GenerationData, p.IsAdmin, p.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %v", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) UpsertPlayer(ctx context.Context, gameID string, player *gametypes.PlayerState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)
	if err := upsertPlayerTx(ctx, tx, gameID, player); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) SavePlayerWorld(ctx context.Context, gameID, playerID string, diff *gametypes.WorldDiff) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, l := range diff.Locations {
		q := `
		INSERT INTO locations (game_id, player_id, location_id, tracked, tracked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_id, location_id) DO UPDATE SET tracked = $4, tracked_at = $5;
		`
		if _, err := tx.Exec(ctx, q, gameID, playerID, l.LocationID, l.Tracked, l.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert location %d: %v", l.LocationID, err)
		}
	}
	for _, i := range diff.Items {
		q := `
		INSERT INTO items (game_id, player_id, item, tracking_value, tracked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_id, item) DO UPDATE SET tracking_value = $4, tracked_at = $5;
		`
		if _, err := tx.Exec(ctx, q, gameID, playerID, i.Item, i.TrackingValue, i.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert item %s: %v", i.Item, err)
		}
	}
	for _, d := range diff.Dungeons {
		q := `
		INSERT INTO dungeons (game_id, player_id, dungeon, tracked, tracked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_id, dungeon) DO UPDATE SET tracked = $4, tracked_at = $5;
		`
		if _, err := tx.Exec(ctx, q, gameID, playerID, d.Dungeon, d.Tracked, d.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert dungeon %s: %v", d.Dungeon, err)
		}
	}
	for _, b := range diff.Bosses {
		q := `
		INSERT INTO bosses (game_id, player_id, boss, tracked, tracked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_id, boss) DO UPDATE SET tracked = $4, tracked_at = $5;
		`
		if _, err := tx.Exec(ctx, q, gameID, playerID, b.Boss, b.Tracked, b.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert boss %s: %v", b.Boss, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) DeletePlayer(ctx context.Context, gameID, playerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM players WHERE game_id = $1 AND id = $2;`, gameID, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %v", playerID, err)
	}
	return nil
}

func (r *PostgresRepository) LoadGame(ctx context.Context, gameID string) (*gametypes.GameState, error) {
	state := &gametypes.GameState{}
	q := `
	SELECT id, url, version, type, status, created_at, last_activity_at, seed, validation_hash, persist, send_items_on_complete
	FROM games WHERE id = $1;
	`
	err := r.pool.QueryRow(ctx, q, gameID).Scan(&state.ID, &state.URL, &state.Version,
		&state.Type, &state.Status, &state.CreatedAt, &state.LastActivityAt,
		&state.Seed, &state.ValidationHash, &state.Persist, &state.SendItemsOnComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game %s: %v", gameID, err)
	}

	rows, err := r.pool.Query(ctx, `
	SELECT id, key, name, phonetic_name, world_id, config, additional_data, generation_data, is_admin, status
	FROM players WHERE game_id = $1;
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %v", err)
	}
	defer rows.Close()

	playersByID := make(map[string]*gametypes.PlayerState)
	for rows.Next() {
		p := gametypes.NewPlayerState("", "", "", "")
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.PhoneticName, &p.WorldID,
			&p.Config, &p.AdditionalData, &p.GenerationData, &p.IsAdmin, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan player: %v", err)
		}
		state.Players = append(state.Players, p)
		playersByID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %v", err)
	}

	if err := r.loadWorlds(ctx, gameID, playersByID); err != nil {
		return nil, err
	}
	return state, nil
}

// loadWorlds fetches all four tracked sub-collections for a game in one query
// each and assigns them to their players.
func (r *PostgresRepository) loadWorlds(ctx context.Context, gameID string, players map[string]*gametypes.PlayerState) error {
	rows, err := r.pool.Query(ctx, `SELECT player_id, location_id, tracked, tracked_at FROM locations WHERE game_id = $1;`, gameID)
	if err != nil {
		return fmt.Errorf("failed to query locations: %v", err)
	}
	for rows.Next() {
		var playerID string
		l := &gametypes.LocationState{}
		if err := rows.Scan(&playerID, &l.LocationID, &l.Tracked, &l.TrackedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan location: %v", err)
		}
		if p, ok := players[playerID]; ok {
			p.Locations[l.LocationID] = l
		}
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT player_id, item, tracking_value, tracked_at FROM items WHERE game_id = $1;`, gameID)
	if err != nil {
		return fmt.Errorf("failed to query items: %v", err)
	}
	for rows.Next() {
		var playerID string
		i := &gametypes.ItemState{}
		if err := rows.Scan(&playerID, &i.Item, &i.TrackingValue, &i.TrackedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan item: %v", err)
		}
		if p, ok := players[playerID]; ok {
			p.Items[i.Item] = i
		}
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT player_id, dungeon, tracked, tracked_at FROM dungeons WHERE game_id = $1;`, gameID)
	if err != nil {
		return fmt.Errorf("failed to query dungeons: %v", err)
	}
	for rows.Next() {
		var playerID string
		d := &gametypes.DungeonState{}
		if err := rows.Scan(&playerID, &d.Dungeon, &d.Tracked, &d.TrackedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan dungeon: %v", err)
		}
		if p, ok := players[playerID]; ok {
			p.Dungeons[d.Dungeon] = d
		}
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `SELECT player_id, boss, tracked, tracked_at FROM bosses WHERE game_id = $1;`, gameID)
	if err != nil {
		return fmt.Errorf("failed to query bosses: %v", err)
	}
	for rows.Next() {
		var playerID string
		b := &gametypes.BossState{}
		if err := rows.Scan(&playerID, &b.Boss, &b.Tracked, &b.TrackedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan boss: %v", err)
		}
		if p, ok := players[playerID]; ok {
			p.Bosses[b.Boss] = b
		}
	}
	rows.Close()

	return nil
}

func (r *PostgresRepository) DeleteGamesOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM games WHERE last_activity_at < $1 RETURNING id;`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old games: %v", err)
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %v", err)
		}
		removed = append(removed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate removed games: %v", err)
	}
	return removed, nil
}
