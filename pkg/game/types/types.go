package types

// GameType is the kind of multiplayer session.
type GameType int

const (
	GameTypeMultiworld GameType = iota
	GameTypeCoop
)

func (t GameType) String() string {
	switch t {
	case GameTypeMultiworld:
		return "multiworld"
	case GameTypeCoop:
		return "coop"
	default:
		return "unknown"
	}
}

// GameStatus is the lifecycle status of a game. The ordering of the constants
// is significant: a game's status only ever moves to a higher value.
type GameStatus int

const (
	GameStatusCreated GameStatus = iota
	GameStatusStarted
	GameStatusCompleted
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusCreated:
		return "created"
	case GameStatusStarted:
		return "started"
	case GameStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CanTransition reports whether a game may move from s to next.
func (s GameStatus) CanTransition(next GameStatus) bool {
	return next > s
}

// PlayerStatus is the per-player lifecycle status within a game.
type PlayerStatus int

const (
	PlayerStatusNotReady PlayerStatus = iota
	PlayerStatusReady
	PlayerStatusPlaying
	PlayerStatusCompleted
	PlayerStatusForfeit
)

func (s PlayerStatus) String() string {
	switch s {
	case PlayerStatusNotReady:
		return "not_ready"
	case PlayerStatusReady:
		return "ready"
	case PlayerStatusPlaying:
		return "playing"
	case PlayerStatusCompleted:
		return "completed"
	case PlayerStatusForfeit:
		return "forfeit"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is one a player never leaves.
func (s PlayerStatus) IsTerminal() bool {
	return s == PlayerStatusCompleted || s == PlayerStatusForfeit
}

// playerTransitions is the closed transition table for player statuses.
// NotReady and Ready may swap (config resubmission before the game starts);
// everything else is one-directional.
var playerTransitions = map[PlayerStatus][]PlayerStatus{
	PlayerStatusNotReady: {PlayerStatusReady, PlayerStatusPlaying},
	PlayerStatusReady:    {PlayerStatusNotReady, PlayerStatusPlaying},
	PlayerStatusPlaying:  {PlayerStatusCompleted, PlayerStatusForfeit},
}

// CanTransition reports whether a player may move from s to next.
func (s PlayerStatus) CanTransition(next PlayerStatus) bool {
	if s == next {
		return false
	}
	for _, allowed := range playerTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}
