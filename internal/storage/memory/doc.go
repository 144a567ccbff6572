// Package memory provides in-memory storage implementations.
//
// CredentialStore mirrors the Badger-backed registry in
// internal/storage for tests and ephemeral nodes. All operations are
// thread-safe; reads use RLock and writes use Lock.
package memory
