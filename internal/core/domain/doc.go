// Package domain defines the core domain models for tickstate.
//
// Domain models are plain values without IO dependencies:
//
//   - PartitionID: 64-bit session partition identifier (base-36 on disk)
//   - Record: one timestamped action payload from a partition log
//   - Identity: a participant carried in the log's init and join records
//   - Credential: an access token minted for one identity in one partition
//
// Errors are DomainError values with stable codes (TS-<AREA>-<NNNN>),
// comparable with errors.Is.
package domain
