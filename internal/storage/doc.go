// Package storage wires the durable stores of a tickstate node.
//
// Architecture:
//
//   - partlog: append-only record log per partition
//   - snapshot: latest materialized state per partition
//   - Badger: embedded KV holding the credential registry
//
// Engine opens all three under one data directory. The credential
// registry stores token hashes only; plaintext tokens never touch disk.
package storage
