// Package identity generates the opaque tokens used for game ids, player ids
// and player secret keys.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxAttempts is the maximum number of retries when allocating an
	// identifier within a scope.
	MaxAttempts = 1024
)

// New returns a new opaque identifier.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NotIn returns an identifier for which taken reports false, retrying on
// collision. The caller must hold whatever lock guards the scope so that the
// generate-and-insert sequence is atomic from its perspective.
func NotIn(taken func(id string) bool) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		id := New()
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique id after %d attempts", MaxAttempts)
}
