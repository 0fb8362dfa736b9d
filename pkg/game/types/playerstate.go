package types

// PlayerState binds one participant's durable state to a game. The secret Key
// is a capability token: it is compared at the boundary and never serialized.
type PlayerState struct {
	ID             string       `json:"playerId"`
	Key            string       `json:"-"`
	Name           string       `json:"playerName"`
	PhoneticName   string       `json:"phoneticName,omitempty"`
	WorldID        *int         `json:"worldId,omitempty"`
	Config         string       `json:"config,omitempty"`
	AdditionalData string       `json:"additionalData,omitempty"`
	GenerationData string       `json:"-"`
	IsAdmin        bool         `json:"isAdmin"`
	IsConnected    bool         `json:"isConnected"`
	Status         PlayerStatus `json:"status"`

	Locations map[int64]*LocationState `json:"locations,omitempty"`
	Items     map[string]*ItemState    `json:"items,omitempty"`
	Dungeons  map[string]*DungeonState `json:"dungeons,omitempty"`
	Bosses    map[string]*BossState    `json:"bosses,omitempty"`
}

// NewPlayerState returns a player with empty tracked collections.
func NewPlayerState(id, key, name, phoneticName string) *PlayerState {
	return &PlayerState{
		ID:           id,
		Key:          key,
		Name:         name,
		PhoneticName: phoneticName,
		Status:       PlayerStatusNotReady,
		Locations:    make(map[int64]*LocationState),
		Items:        make(map[string]*ItemState),
		Dungeons:     make(map[string]*DungeonState),
		Bosses:       make(map[string]*BossState),
	}
}

// HasGenerationData reports whether the player's world layout has been
// submitted.
func (p *PlayerState) HasGenerationData() bool {
	return p.GenerationData != "" && p.WorldID != nil
}

// Copy returns a deep copy of the player state.
func (p *PlayerState) Copy() *PlayerState {
	cp := *p
	if p.WorldID != nil {
		worldID := *p.WorldID
		cp.WorldID = &worldID
	}
	cp.Locations = make(map[int64]*LocationState, len(p.Locations))
	for id, l := range p.Locations {
		entry := *l
		cp.Locations[id] = &entry
	}
	cp.Items = make(map[string]*ItemState, len(p.Items))
	for typ, i := range p.Items {
		entry := *i
		cp.Items[typ] = &entry
	}
	cp.Dungeons = make(map[string]*DungeonState, len(p.Dungeons))
	for name, d := range p.Dungeons {
		entry := *d
		cp.Dungeons[name] = &entry
	}
	cp.Bosses = make(map[string]*BossState, len(p.Bosses))
	for typ, b := range p.Bosses {
		entry := *b
		cp.Bosses[typ] = &entry
	}
	return &cp
}
