// Package spatial provides the 3D vector, quaternion, and axis-aligned
// bounding box primitives used by the mixer's spatialization math.
//
// No third-party vector-math library appears anywhere in the project's
// reference corpus, so these types are implemented directly on top of
// the standard math package. They follow the same right-handed,
// unit-quaternion conventions as the original mixer they replace:
// forward is the canonical axis (0, 0, -1), and rotating a vector by a
// quaternion's inverse transforms it into that quaternion's local frame.
package spatial
