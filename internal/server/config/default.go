package config

import "time"

// Default configuration values.
const (
	DefaultAdminAddr       = "127.0.0.1:7070"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDataDir        = "/var/lib/tickstate/data"
	DefaultMaxOpenHandles = 1024
	DefaultGCInterval     = 10 * time.Minute

	DefaultJoinBaseURL   = "http://127.0.0.1:8080/join"
	DefaultForkRate      = 1.0
	DefaultForkBurst     = 5
	DefaultForkIDAttempt = 8

	DefaultCredentialTTL     = 24 * time.Hour
	DefaultCredentialBackend = "badger"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			AdminAddr:       DefaultAdminAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			DataDir:        DefaultDataDir,
			MaxOpenHandles: DefaultMaxOpenHandles,
			GCInterval:     DefaultGCInterval,
		},
		Fork: ForkSection{
			JoinBaseURL:   DefaultJoinBaseURL,
			RatePerSecond: DefaultForkRate,
			Burst:         DefaultForkBurst,
			IDAttempts:    DefaultForkIDAttempt,
		},
		Credential: CredentialSection{
			TTL:     DefaultCredentialTTL,
			Backend: DefaultCredentialBackend,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
