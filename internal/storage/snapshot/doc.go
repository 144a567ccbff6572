// Package snapshot stores the latest materialized state of each partition.
//
// One file per partition, replaced atomically on every save:
//
//	<base36(partition)>.snap
//	[magic:8 "TKSNAP01"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (schema value encoding, or encrypted bytes)
//	[checksum:32 SHA-256 of all bytes above]
//
// Lengths are big-endian. The header records the schema fingerprint; a
// load against a different schema fails with domain.ErrSchemaMismatch.
//
// Forking copies the file byte for byte, so the header keeps the
// partition that originally wrote it.
package snapshot
