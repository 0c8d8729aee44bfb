// Package spatial provides the 3D rigid-body algebra used by the multibody
// engine: vectors, rotations, rigid transforms, and the six-component spatial
// velocity, acceleration, force, and inertia quantities with their shift and
// re-expression operations.
//
// Naming follows the monogram convention: X_AB is the pose of frame B in
// frame A, V_WB the spatial velocity of body B measured and expressed in the
// world frame W, and so on.
package spatial
