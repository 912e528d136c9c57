// Package registry tracks fitted model artifacts by identity.
//
// A Registry maps a model's identity fingerprint to the location of its
// saved artifact, so fitted models can be discovered and reloaded without
// scanning the blob store.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrEntryNotFound is returned when no entry exists for the requested model.
var ErrEntryNotFound = errors.New("registry entry not found")

// ErrAlreadyRegistered is returned when an entry with the same identity
// already exists.
var ErrAlreadyRegistered = errors.New("model already registered")

// Entry describes a fitted model artifact.
type Entry struct {
	// ID is the model's identity fingerprint.
	ID string

	// ModelType is the model family (e.g. "BetaGeoModel").
	ModelType string

	// Location is the artifact name in the blob store.
	Location string

	// FitMethod records how the posterior was obtained ("mcmc" or "map").
	FitMethod string

	// FittedAt is when the fit completed.
	FittedAt time.Time
}

// Registry stores and retrieves fitted model entries.
type Registry interface {
	// Register adds an entry. Returns ErrAlreadyRegistered if an entry with
	// the same model type and identity already exists.
	Register(ctx context.Context, e Entry) error

	// Lookup returns the entry for a model type and identity.
	// Returns ErrEntryNotFound if no such entry exists.
	Lookup(ctx context.Context, modelType, id string) (Entry, error)

	// List returns all entries for a model type, newest first.
	List(ctx context.Context, modelType string) ([]Entry, error)

	// Deregister removes an entry. Removing a missing entry is not an error.
	Deregister(ctx context.Context, modelType, id string) error
}
