package interfaces

import (
	"context"
	"errors"
)

// ErrPreferenceNotFound is returned when a preference key has never been set.
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceStore persists small client-side values (range, theme, demo API key).
type PreferenceStore interface {
	// Get returns the stored value or ErrPreferenceNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// GetAll returns every stored preference
	GetAll(ctx context.Context) (map[string]string, error)

	// Close releases the underlying storage
	Close() error
}
