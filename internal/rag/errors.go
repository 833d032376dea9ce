package rag

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery       = errors.New("query text cannot be empty")
	ErrRetrievalTimeout = errors.New("retrieval timed out")
	// ErrStaleContent means the transcript changed while its vectors were
	// being built, so the run must not be recorded as indexed.
	ErrStaleContent = errors.New("transcript content changed during indexing")
)

// ChunkingError aborts an indexing run before any embedding happens.
type ChunkingError struct {
	VideoID string
	Err     error
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunking video %q: %v", e.VideoID, e.Err)
}

func (e *ChunkingError) Unwrap() error { return e.Err }

// EmbeddingError is surfaced after retries are exhausted.
type EmbeddingError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *EmbeddingError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("embedding %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("embedding %s failed: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// DimensionMismatchError is an integration error and is never retried.
type DimensionMismatchError struct {
	What     string
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch (%s): expected %d, got %d", e.What, e.Expected, e.Got)
}

type VectorStoreError struct {
	Op      string
	VideoID string
	Err     error
}

func (e *VectorStoreError) Error() string {
	if e.VideoID != "" {
		return fmt.Sprintf("vector store %s (video %q): %v", e.Op, e.VideoID, e.Err)
	}
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

func IsDimensionMismatch(err error) bool {
	var e *DimensionMismatchError
	return errors.As(err, &e)
}

func IsChunkingError(err error) bool {
	var e *ChunkingError
	return errors.As(err, &e)
}

func IsEmbeddingError(err error) bool {
	var e *EmbeddingError
	return errors.As(err, &e)
}

func IsVectorStoreError(err error) bool {
	var e *VectorStoreError
	return errors.As(err, &e)
}
