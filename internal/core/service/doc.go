// Package service provides the domain services of a tickstate node.
//
// Services orchestrate the pure core (schema, delta) and the durable
// stores behind small interfaces, allowing for dependency injection and
// testability.
//
// This package contains:
//
//   - Room: per-partition tick driver (commit, diff, encode, broadcast,
//     append accepted actions, persist snapshots)
//   - Forker: clones a partition and re-issues credentials for every
//     participant found in its log
//   - TokenIssuer: mints and verifies partition-scoped credentials
//   - URLBuilder and LogOpener: render and surface join URLs
//
// All services are safe for concurrent use. A partition still has exactly
// one Room; two Rooms appending to the same partition interleave records.
package service
