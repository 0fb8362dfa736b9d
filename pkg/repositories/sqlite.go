package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gametypes "multiworld/pkg/game/types"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies every migration
// in the migrations directory in lexical order. Foreign keys are enabled so
// the cascading deletes from games down to tracked entries work.
func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(_ context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) UpsertGame(ctx context.Context, state *gametypes.GameState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `
	INSERT INTO games (id, url, version, type, status, created_at, last_activity_at, seed, validation_hash, persist, send_items_on_complete)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = excluded.status, last_activity_at = excluded.last_activity_at,
		seed = excluded.seed, validation_hash = excluded.validation_hash;
	`
	_, err = tx.ExecContext(ctx, q, state.ID, state.URL, state.Version, state.Type, state.Status,
		state.CreatedAt, state.LastActivityAt, state.Seed, state.ValidationHash,
		state.Persist, state.SendItemsOnComplete)
	if err != nil {
		return fmt.Errorf("failed to upsert game %s: %v", state.ID, err)
	}

	for _, p := range state.Players {
		if err := upsertPlayerSQLite(ctx, tx, state.ID, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func upsertPlayerSQLite(ctx context.Context, tx *sql.Tx, gameID string, p *gametypes.PlayerState) error {
	q := `
	INSERT INTO players (game_id, id, key, name, phonetic_name, world_id, config, additional_data, generation_data, is_admin, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (game_id, id) DO UPDATE SET
		phonetic_name = excluded.phonetic_name, world_id = excluded.world_id,
		config = excluded.config, additional_data = excluded.additional_data,
		generation_data = excluded.generation_data, is_admin = excluded.is_admin,
		status = excluded.status;
	`
	_, err := tx.ExecContext(ctx, q, gameID, p.ID, p.Key, p.Name, p.PhoneticName, p.WorldID,
		p.Config, p.AdditionalData, p.GenerationData, p.IsAdmin, p.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %v", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertPlayer(ctx context.Context, gameID string, player *gametypes.PlayerState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()
	if err := upsertPlayerSQLite(ctx, tx, gameID, player); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) SavePlayerWorld(ctx context.Context, gameID, playerID string, diff *gametypes.WorldDiff) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	for _, l := range diff.Locations {
		q := `
		INSERT INTO locations (game_id, player_id, location_id, tracked, tracked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id, location_id) DO UPDATE SET
			tracked = excluded.tracked, tracked_at = excluded.tracked_at;
		`
		if _, err := tx.ExecContext(ctx, q, gameID, playerID, l.LocationID, l.Tracked, l.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert location %d: %v", l.LocationID, err)
		}
	}
	for _, i := range diff.Items {
		q := `
		INSERT INTO items (game_id, player_id, item, tracking_value, tracked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id, item) DO UPDATE SET
			tracking_value = excluded.tracking_value, tracked_at = excluded.tracked_at;
		`
		if _, err := tx.ExecContext(ctx, q, gameID, playerID, i.Item, i.TrackingValue, i.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert item %s: %v", i.Item, err)
		}
	}
	for _, d := range diff.Dungeons {
		q := `
		INSERT INTO dungeons (game_id, player_id, dungeon, tracked, tracked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id, dungeon) DO UPDATE SET
			tracked = excluded.tracked, tracked_at = excluded.tracked_at;
		`
		if _, err := tx.ExecContext(ctx, q, gameID, playerID, d.Dungeon, d.Tracked, d.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert dungeon %s: %v", d.Dungeon, err)
		}
	}
	for _, b := range diff.Bosses {
		q := `
		INSERT INTO bosses (game_id, player_id, boss, tracked, tracked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id, boss) DO UPDATE SET
			tracked = excluded.tracked, tracked_at = excluded.tracked_at;
		`
		if _, err := tx.ExecContext(ctx, q, gameID, playerID, b.Boss, b.Tracked, b.TrackedAt); err != nil {
			return fmt.Errorf("failed to upsert boss %s: %v", b.Boss, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) DeletePlayer(ctx context.Context, gameID, playerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE game_id = ? AND id = ?;`, gameID, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %v", playerID, err)
	}
	return nil
}

func (r *SQLiteRepository) LoadGame(ctx context.Context, gameID string) (*gametypes.GameState, error) {
	state := &gametypes.GameState{}
	q := `
	SELECT id, url, version, type, status, created_at, last_activity_at, seed, validation_hash, persist, send_items_on_complete
	FROM games WHERE id = ?;
	`
	err := r.db.QueryRowContext(ctx, q, gameID).Scan(&state.ID, &state.URL, &state.Version,
		&state.Type, &state.Status, &state.CreatedAt, &state.LastActivityAt,
		&state.Seed, &state.ValidationHash, &state.Persist, &state.SendItemsOnComplete)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game %s: %v", gameID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
	SELECT id, key, name, phonetic_name, world_id, config, additional_data, generation_data, is_admin, status
	FROM players WHERE game_id = ?;
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

func (r *SQLiteRepository) loadWorlds(ctx context.Context, gameID string, players map[string]*gametypes.PlayerState) error {
	rows, err := r.db.QueryContext(ctx, `SELECT player_id, location_id, tracked, tracked_at FROM locations WHERE game_id = ?;`, gameID)
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

	rows, err = r.db.QueryContext(ctx, `SELECT player_id, item, tracking_value, tracked_at FROM items WHERE game_id = ?;`, gameID)
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

	rows, err = r.db.QueryContext(ctx, `SELECT player_id, dungeon, tracked, tracked_at FROM dungeons WHERE game_id = ?;`, gameID)
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

	rows, err = r.db.QueryContext(ctx, `SELECT player_id, boss, tracked, tracked_at FROM bosses WHERE game_id = ?;`, gameID)
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

func (r *SQLiteRepository) DeleteGamesOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM games WHERE last_activity_at < ?;`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query old games: %v", err)
	}
	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan game id: %v", err)
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate old games: %v", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE last_activity_at < ?;`, cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete old games: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v", err)
	}
	return removed, nil
}
