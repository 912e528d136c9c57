package bayesgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bayesgo/artifact"
	"github.com/hupe1980/bayesgo/blobstore"
)

var (
	// ErrNotFitted is returned when a fit result is requested before Fit has
	// been called.
	ErrNotFitted = errors.New("The model hasn't been fit yet")

	// ErrNotFound is returned when a requested artifact does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrCorruptArtifact indicates an artifact that could not be decoded:
	// bad magic, unsupported version, checksum mismatch, or missing sections.
	ErrCorruptArtifact = errors.New("artifact corrupted")
)

// ErrUnknownFitMethod indicates an unsupported fit method.
type ErrUnknownFitMethod struct {
	Method FitMethod
}

func (e *ErrUnknownFitMethod) Error() string {
	return fmt.Sprintf("Fit method options are ['mcmc', 'map'], got: %s", e.Method)
}

// ErrIncompatibleArtifact indicates a saved artifact whose identity does not
// match the model reconstructed from it.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrIncompatibleArtifact struct {
	ModelType string
	cause     error
}

func (e *ErrIncompatibleArtifact) Error() string {
	return fmt.Sprintf("Inference data not compatible with %s", e.ModelType)
}

func (e *ErrIncompatibleArtifact) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Decode failure normalization.
	if errors.Is(err, artifact.ErrInvalidMagic) ||
		errors.Is(err, artifact.ErrInvalidVersion) ||
		errors.Is(err, artifact.ErrMissingSection) ||
		artifact.IsChecksumMismatch(err) {
		return fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}

	return err
}
