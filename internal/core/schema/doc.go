// Package schema describes snapshot shapes and holds snapshot values.
//
// A Type is fixed at build time, either through the Go constructors
// (Object, F, Sequence, Optional and the primitives) or by loading a YAML
// types file. A snapshot is a *Node tree conforming to a Type:
//
//   - Object nodes hold their children positionally, in declared field order
//   - Sequence nodes hold their elements in order
//   - an absent Optional is a nil *Node; a present one is the inner value
//
// Optional(Optional(T)) is rejected so that "absent" has exactly one
// representation.
package schema
