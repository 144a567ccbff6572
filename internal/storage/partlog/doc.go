// Package partlog provides the append-only per-partition record log.
//
// Each partition owns one file inside the storage directory, named by the
// partition id in base-36 with no extension:
//
//	<dir>/<base36(partition)>
//	[Record]*
//
// Record wire format (little-endian):
//
//	[Time:8][Length:2][Reserved:2][Payload:Length]
//
// Appends go through a cached append-mode handle per partition. The cache
// is bounded (LRU); an evicted partition is reopened on its next append.
// Load uses its own handle and scans sequentially from offset 0.
//
// A record whose header or payload runs past end of file is corruption:
// Load returns every complete record before it together with an error
// matching domain.ErrLogCorruption.
//
// Callers serialize appends per partition. Different partitions are
// independent.
package partlog
