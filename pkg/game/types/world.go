package types

import "time"

// LocationState tracks whether a single location in a player's world has been
// cleared.
type LocationState struct {
	LocationID int64      `json:"locationId"`
	Tracked    bool       `json:"tracked"`
	TrackedAt  *time.Time `json:"trackedAt,omitempty"`
}

// ItemState tracks how many of an item a player has collected.
type ItemState struct {
	Item          string     `json:"item"`
	TrackingValue int        `json:"trackingValue"`
	TrackedAt     *time.Time `json:"trackedAt,omitempty"`
}

// DungeonState tracks whether a player has cleared a dungeon.
type DungeonState struct {
	Dungeon   string     `json:"dungeon"`
	Tracked   bool       `json:"tracked"`
	TrackedAt *time.Time `json:"trackedAt,omitempty"`
}

// BossState tracks whether a player has defeated a boss.
type BossState struct {
	Boss      string     `json:"boss"`
	Tracked   bool       `json:"tracked"`
	TrackedAt *time.Time `json:"trackedAt,omitempty"`
}

// WorldSnapshot is a client's full report of its world progress. Clients
// always send the whole world; the server decides what actually changed.
type WorldSnapshot struct {
	Locations []LocationState `json:"locations"`
	Items     []ItemState     `json:"items"`
	Dungeons  []DungeonState  `json:"dungeons"`
	Bosses    []BossState     `json:"bosses"`
}

// WorldDiff is the server-computed set of entries in a snapshot that differ
// from the stored copy. It is the unit of incremental persistence.
type WorldDiff struct {
	Locations []LocationState `json:"locations,omitempty"`
	Items     []ItemState     `json:"items,omitempty"`
	Dungeons  []DungeonState  `json:"dungeons,omitempty"`
	Bosses    []BossState     `json:"bosses,omitempty"`
}

// HasChanges reports whether the diff contains any entries.
func (d *WorldDiff) HasChanges() bool {
	return len(d.Locations) > 0 || len(d.Items) > 0 || len(d.Dungeons) > 0 || len(d.Bosses) > 0
}

// PlayerGenerationData is the world layout payload one player needs from
// another to patch their own rom.
type PlayerGenerationData struct {
	PlayerID string `json:"playerId"`
	WorldID  int    `json:"worldId"`
	Data     string `json:"data"`
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ApplySnapshot merges a full world snapshot into the player's stored
// collections and returns the entries whose tracked value or timestamp
// actually differ. Entries absent from the snapshot are left untouched.
func (p *PlayerState) ApplySnapshot(snapshot WorldSnapshot) WorldDiff {
	var diff WorldDiff

	for _, incoming := range snapshot.Locations {
		current, ok := p.Locations[incoming.LocationID]
		if ok && current.Tracked == incoming.Tracked && timesEqual(current.TrackedAt, incoming.TrackedAt) {
			continue
		}
		entry := incoming
		p.Locations[incoming.LocationID] = &entry
		diff.Locations = append(diff.Locations, incoming)
	}

	for _, incoming := range snapshot.Items {
		current, ok := p.Items[incoming.Item]
		if ok && current.TrackingValue == incoming.TrackingValue && timesEqual(current.TrackedAt, incoming.TrackedAt) {
			continue
		}
		entry := incoming
		p.Items[incoming.Item] = &entry
		diff.Items = append(diff.Items, incoming)
	}

	for _, incoming := range snapshot.Dungeons {
		current, ok := p.Dungeons[incoming.Dungeon]
		if ok && current.Tracked == incoming.Tracked && timesEqual(current.TrackedAt, incoming.TrackedAt) {
			continue
		}
		entry := incoming
		p.Dungeons[incoming.Dungeon] = &entry
		diff.Dungeons = append(diff.Dungeons, incoming)
	}

	for _, incoming := range snapshot.Bosses {
		current, ok := p.Bosses[incoming.Boss]
		if ok && current.Tracked == incoming.Tracked && timesEqual(current.TrackedAt, incoming.TrackedAt) {
			continue
		}
		entry := incoming
		p.Bosses[incoming.Boss] = &entry
		diff.Bosses = append(diff.Bosses, incoming)
	}

	return diff
}
