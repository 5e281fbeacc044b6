package model

import "errors"

// Sentinel errors returned across the engine. Callers discriminate with
// errors.Is; wrapping preserves call-site context.
var (
	// ErrNotFound: the referenced memory does not exist in the queried tier.
	ErrNotFound = errors.New("memory not found")

	// ErrAlreadyInState: a lifecycle transition was requested on a memory
	// already in the target state (deleting a deleted memory, restoring an
	// active one).
	ErrAlreadyInState = errors.New("memory already in requested state")

	// ErrAmbiguous: a reference matched several memories and cannot be
	// resolved without narrowing.
	ErrAmbiguous = errors.New("ambiguous memory reference")

	// ErrNoMatch: a scoped lookup matched nothing.
	ErrNoMatch = errors.New("no matching memories")

	// ErrIndexUnavailable: the embedding side of the index cannot be
	// reached. Search masks this by degrading to text-only; it surfaces only
	// from operations that need the vector index itself.
	ErrIndexUnavailable = errors.New("embedding index unavailable")

	// ErrSessionNotFound: the narrowing session id is unknown, expired, or
	// already finished.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthorized: the operation touches the deleted tier or crosses
	// tiers and the caller holds no capability for that.
	ErrUnauthorized = errors.New("operation requires tier management capability")
)
