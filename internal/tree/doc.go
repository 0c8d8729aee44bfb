// Package tree implements articulated rigid-body systems as rooted trees of
// bodies connected by mobilizers, with O(n) recursive algorithms for
// kinematics and dynamics.
//
// A model is built incrementally (AddBody, AddMobilizer, AddUniformGravity)
// and compiled with Finalize, which numbers the bodies breadth first so that
// every node's index exceeds its parent's. Base-to-tip sweeps then run as a
// simple walk over depth levels, and tip-to-base sweeps as the reverse walk.
//
// All state lives in a Context: the generalized positions and velocities
// plus memoized kinematics caches. A finalized Tree is immutable and safe
// for concurrent evaluation with separate contexts.
//
// The operation catalogue covers position, velocity and acceleration
// kinematics, inverse dynamics (and mass matrix and bias term via
// inverse-dynamics probing), articulated-body inertias, geometric Jacobians
// with their bias terms, energy, and kinematic maps between v and q̇.
package tree
