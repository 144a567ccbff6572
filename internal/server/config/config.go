package config

import "time"

// ServerConfig is the root configuration for tickstate-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Storage    StorageSection    `koanf:"storage"`
	Fork       ForkSection       `koanf:"fork"`
	Credential CredentialSection `koanf:"credential"`
	Security   SecuritySection   `koanf:"security"`
	Log        LogSection        `koanf:"log"`
}

// ServerSection configures the admin HTTP endpoint.
type ServerSection struct {
	AdminAddr       string        `koanf:"admin_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageSection configures partition logs, snapshots and the credential
// registry. Empty sub-directories default to paths under DataDir.
type StorageSection struct {
	DataDir        string `koanf:"data_dir"`
	LogDir         string `koanf:"log_dir"`
	SnapshotDir    string `koanf:"snapshot_dir"`
	CredentialsDir string `koanf:"credentials_dir"`

	// MaxOpenHandles bounds cached partition log append handles.
	MaxOpenHandles int `koanf:"max_open_handles"`

	// SyncWrites fsyncs partition logs after every append.
	SyncWrites bool `koanf:"sync_writes"`

	// GCInterval is the Badger value log GC period.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ForkSection configures session forking.
type ForkSection struct {
	// JoinBaseURL prefixes join URLs: {base}/{partition}?token={token}.
	JoinBaseURL string `koanf:"join_base_url"`

	// RatePerSecond and Burst limit the admin fork endpoint.
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`

	// IDAttempts bounds partition id draws that hit an existing snapshot.
	IDAttempts int `koanf:"id_attempts"`
}

// CredentialSection configures credential issuance.
type CredentialSection struct {
	// TTL is the credential lifetime. Zero means no expiry.
	TTL time.Duration `koanf:"ttl"`

	// Backend is "badger" (persistent) or "memory".
	Backend string `koanf:"backend"`
}

// SecuritySection configures secrets.
type SecuritySection struct {
	// SnapshotSecret enables snapshot encryption when set.
	SnapshotSecret string `koanf:"snapshot_secret"`

	// SnapshotCipher is "aes-gcm", "chacha20-poly1305" or "" for automatic.
	SnapshotCipher string `koanf:"snapshot_cipher"`

	// AdminToken, when set, is required as a bearer token on /admin routes.
	AdminToken string `koanf:"admin_token"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
