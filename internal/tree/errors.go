package tree

import "errors"

// Domain errors for model construction and evaluation. Size and nil-buffer
// preconditions are programmer errors and panic instead; these sentinels
// cover the recoverable usage errors a caller may want to catch.
var (
	// ErrFinalized indicates a construction call on an already finalized model.
	ErrFinalized = errors.New("tree: model already finalized")

	// ErrNotFinalized indicates an evaluation call before Finalize.
	ErrNotFinalized = errors.New("tree: model not finalized")

	// ErrIncompatibleContext indicates a context created from a different model.
	ErrIncompatibleContext = errors.New("tree: context not compatible with this model")

	// ErrNotFreeBody indicates a free-floating-body operation on a body whose
	// inboard mobilizer is not a quaternion floating mobilizer.
	ErrNotFreeBody = errors.New("tree: body is not free floating")

	// ErrBadTopology indicates an invalid joint graph (duplicate inboard
	// mobilizer, mobilized world, or unreachable body).
	ErrBadTopology = errors.New("tree: invalid topology")
)
