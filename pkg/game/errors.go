package game

import "errors"

var (
	// ErrGameStarted is returned when an operation requires a game that has
	// not started yet.
	ErrGameStarted = errors.New("game already started")
	// ErrGameNotStarted is returned when an operation requires a started game.
	ErrGameNotStarted = errors.New("game has not started")
	// ErrNameInUse is returned when a joining player's sanitized name matches
	// an existing roster entry.
	ErrNameInUse = errors.New("player name in use")
	// ErrVersionMismatch is returned when a joining player's client version
	// disagrees with the version the game was created on.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrInvalidName is returned when a player name is empty after
	// sanitization.
	ErrInvalidName = errors.New("invalid player name")
	// ErrMissingConfig is returned by Start when a roster player has not
	// submitted a config.
	ErrMissingConfig = errors.New("one or more players is missing a config")
	// ErrMissingGenerationData is returned by Start when a roster player has
	// no generation data.
	ErrMissingGenerationData = errors.New("one or more players is missing generation data")
	// ErrPlayerNotFound is returned for unknown player ids and for failed
	// secret-key checks. The two cases are deliberately indistinguishable.
	ErrPlayerNotFound = errors.New("unable to find player")
	// ErrPlayerFinished is returned when acting on a player who has already
	// completed or forfeited.
	ErrPlayerFinished = errors.New("player already ended game")
	// ErrStatusRegression is returned when a game status update would move
	// the status backwards.
	ErrStatusRegression = errors.New("game status cannot move backwards")
)
