package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/tickstate-go/internal/core/service"
	"github.com/yndnr/tickstate-go/internal/infra/buildinfo"
	"github.com/yndnr/tickstate-go/internal/infra/confloader"
	"github.com/yndnr/tickstate-go/internal/infra/shutdown"
	"github.com/yndnr/tickstate-go/internal/server/config"
	"github.com/yndnr/tickstate-go/internal/server/httpserver"
	"github.com/yndnr/tickstate-go/internal/storage"
	"github.com/yndnr/tickstate-go/internal/storage/memory"
	"github.com/yndnr/tickstate-go/internal/storage/snapshot"
	"github.com/yndnr/tickstate-go/internal/telemetry/logger"
	"github.com/yndnr/tickstate-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		adminAddr   = flag.String("admin-addr", "", "Admin HTTP listen address (overrides config)")
		dataDir     = flag.String("data-dir", "", "Data directory (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("tickstate-server " + buildinfo.String())
		return nil
	}

	overrides := map[string]any{}
	if *adminAddr != "" {
		overrides["server.admin_addr"] = *adminAddr
	}
	if *dataDir != "" {
		overrides["storage.data_dir"] = *dataDir
	}

	cfg, err := loadConfig(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	log.Info("starting tickstate-server",
		"build", buildinfo.String(),
		"config", *configFile,
		"settings", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	engine, err := initStorage(cfg, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	engine.RegisterMetrics(metrics.Registerer())
	metrics.Registerer().MustRegister(metric.NewCollector(engine.Logs))

	issuer, forker, err := initServices(cfg, engine, log, metrics)
	if err != nil {
		engine.Close()
		return fmt.Errorf("init services: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Logs:       engine.Logs,
		Forker:     forker,
		Verifier:   issuer,
		Metrics:    metrics,
		Logger:     log.With("component", "http"),
		AdminToken: cfg.Security.AdminToken,
		ForkRate:   cfg.Fork.RatePerSecond,
		ForkBurst:  cfg.Fork.Burst,
	})
	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.AdminAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})

	if *configFile != "" {
		watcher, err := watchLogLevel(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		log.Info("admin HTTP server listening", "addr", cfg.Server.AdminAddr)
		if err := httpServer.ListenAndServe(); err != nil {
			log.Error("admin HTTP server error", "error", err)
			cancel(err)
		}
	}()

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && cause != context.Canceled {
		return cause
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, environment and flags.
func loadConfig(configFile string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchLogLevel re-reads configFile on change and applies log.level.
// Other settings need a restart.
func watchLogLevel(configFile string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(configFile, confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path, nil)
		if err != nil {
			log.Warn("ignoring invalid config change", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

// initStorage opens the storage engine under cfg.Storage.DataDir.
func initStorage(cfg *config.ServerConfig, log *slog.Logger) (*storage.Engine, error) {
	storageCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	storageCfg.Logger = log
	if cfg.Storage.LogDir != "" {
		storageCfg.Log.Dir = cfg.Storage.LogDir
	}
	if cfg.Storage.SnapshotDir != "" {
		storageCfg.Snapshot.Dir = cfg.Storage.SnapshotDir
	}
	if cfg.Storage.CredentialsDir != "" {
		storageCfg.KV.Dir = cfg.Storage.CredentialsDir
	}
	storageCfg.Log.MaxOpenHandles = cfg.Storage.MaxOpenHandles
	storageCfg.Log.SyncWrites = cfg.Storage.SyncWrites
	storageCfg.KV.Badger.GCInterval = cfg.Storage.GCInterval.String()
	storageCfg.KV.Badger.InMemory = cfg.Credential.Backend == "memory"
	storageCfg.Encryption = snapshot.EncryptionConfig{
		Secret:    []byte(cfg.Security.SnapshotSecret),
		Algorithm: cfg.Security.SnapshotCipher,
	}

	return storage.New(storageCfg)
}

// initServices wires the credential issuer and the forker.
func initServices(cfg *config.ServerConfig, engine *storage.Engine, log *slog.Logger, metrics *metric.Registry) (*service.TokenIssuer, *service.Forker, error) {
	var repo service.CredentialRepository = engine.Credentials
	if cfg.Credential.Backend == "memory" {
		repo = memory.NewCredentialStore()
	}

	issuer := service.NewTokenIssuer(repo, &service.IssuerConfig{TTL: cfg.Credential.TTL}).
		RegisterMetrics(metrics.Registerer())

	forker, err := service.NewForker(service.ForkerConfig{
		Logs:       engine.Logs,
		Snapshots:  engine.Snapshots,
		Issuer:     issuer,
		URLs:       service.URLBuilder{Base: cfg.Fork.JoinBaseURL},
		IDAttempts: cfg.Fork.IDAttempts,
		Logger:     log.With("component", "fork"),
	})
	if err != nil {
		return nil, nil, err
	}
	forker.RegisterMetrics(metrics.Registerer())

	log.Info("services initialized",
		"credential_backend", cfg.Credential.Backend,
		"join_base_url", cfg.Fork.JoinBaseURL)
	return issuer, forker, nil
}
