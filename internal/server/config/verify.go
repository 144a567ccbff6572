package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/yndnr/tickstate-go/internal/telemetry/logger"
	"github.com/yndnr/tickstate-go/pkg/crypto/adaptive"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyFork(&cfg.Fork),
		verifyCredential(&cfg.Credential),
		verifySecurity(&cfg.Security),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.AdminAddr); err != nil {
		return fmt.Errorf("server.admin_addr %q: %w", cfg.AdminAddr, err)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.MaxOpenHandles < 1 {
		return errors.New("storage.max_open_handles must be at least 1")
	}
	if cfg.GCInterval < 0 {
		return errors.New("storage.gc_interval must not be negative")
	}
	return nil
}

func verifyFork(cfg *ForkSection) error {
	u, err := url.Parse(cfg.JoinBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("fork.join_base_url %q must be an absolute URL", cfg.JoinBaseURL)
	}
	if cfg.RatePerSecond <= 0 || cfg.Burst < 1 {
		return errors.New("fork.rate_per_second must be positive and fork.burst at least 1")
	}
	if cfg.IDAttempts < 1 {
		return errors.New("fork.id_attempts must be at least 1")
	}
	return nil
}

func verifyCredential(cfg *CredentialSection) error {
	if cfg.TTL < 0 {
		return errors.New("credential.ttl must not be negative")
	}
	switch cfg.Backend {
	case "badger", "memory":
		return nil
	default:
		return fmt.Errorf("credential.backend %q: want badger or memory", cfg.Backend)
	}
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.SnapshotSecret != "" && len(cfg.SnapshotSecret) < adaptive.MinSecretLength {
		return fmt.Errorf("security.snapshot_secret must be at least %d bytes", adaptive.MinSecretLength)
	}
	switch adaptive.CipherType(cfg.SnapshotCipher) {
	case "", adaptive.CipherAESGCM, adaptive.CipherChaCha20:
		return nil
	default:
		return fmt.Errorf("security.snapshot_cipher %q is not supported", cfg.SnapshotCipher)
	}
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not a level", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q: want json or text", cfg.Format)
	}
}
