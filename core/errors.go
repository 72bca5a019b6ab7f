package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidEntry indicates an IndexEntry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrEmptyContent indicates the text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyVector indicates an entry has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrMissingSource indicates a chunk carries no source path.
	ErrMissingSource = errors.New("source cannot be empty")
)

// Pipeline error kinds. Every failure surfaced by an ingestion pipeline
// matches exactly one of these with errors.Is.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrDocumentLoad     = errors.New("document load error")
	ErrEmbeddingBackend = errors.New("embedding backend error")
	ErrStorage          = errors.New("storage error")
)

// Stage names the pipeline step in which an error occurred.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageLoad      Stage = "load"
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageStore     Stage = "store"
)

// StageError carries the stage, error kind, and offending path of a
// pipeline failure.
type StageError struct {
	Stage Stage
	Kind  error
	Path  string // Document path or index directory, when known
	Err   error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewConfigurationError reports an invalid pipeline configuration.
func NewConfigurationError(err error) error {
	return &StageError{Stage: StageConfigure, Kind: ErrConfiguration, Err: err}
}

// NewDocumentLoadError reports a path that could not be read or parsed.
func NewDocumentLoadError(path string, err error) error {
	return &StageError{Stage: StageLoad, Kind: ErrDocumentLoad, Path: path, Err: err}
}

// NewChunkError reports a splitter failure on the given document.
// Splitting is a local operation, so failures are classified as configuration errors.
func NewChunkError(path string, err error) error {
	return &StageError{Stage: StageChunk, Kind: ErrConfiguration, Path: path, Err: err}
}

// NewEmbeddingError reports a failure from the embedding backend.
func NewEmbeddingError(err error) error {
	return &StageError{Stage: StageEmbed, Kind: ErrEmbeddingBackend, Err: err}
}

// NewStorageError reports an index write or persist failure.
func NewStorageError(dir string, err error) error {
	return &StageError{Stage: StageStore, Kind: ErrStorage, Path: dir, Err: err}
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
