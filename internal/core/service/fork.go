package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// LogLoader reads a partition log from the beginning.
type LogLoader interface {
	Load(p domain.PartitionID) ([]domain.Record, error)
}

// SnapshotCloner byte-copies a partition's snapshot file.
type SnapshotCloner interface {
	Exists(p domain.PartitionID) bool
	Copy(src, dst domain.PartitionID) error
}

// ForkState is a step of the fork state machine.
type ForkState int

// Fork states, in order.
const (
	ForkStart ForkState = iota
	ForkSnapshotCloned
	ForkReplaying
	ForkDone
)

func (s ForkState) String() string {
	switch s {
	case ForkStart:
		return "start"
	case ForkSnapshotCloned:
		return "snapshot_cloned"
	case ForkReplaying:
		return "replaying"
	case ForkDone:
		return "done"
	default:
		return "unknown"
	}
}

// DefaultForkIDAttempts bounds partition id draws that hit an existing snapshot.
const DefaultForkIDAttempts = 8

// ForkEntry is one participant carried into the fork.
type ForkEntry struct {
	Identity   domain.Identity
	Credential *domain.Credential
	JoinURL    string
}

// ForkFailure records a participant whose issue or open step failed.
type ForkFailure struct {
	Identity domain.Identity
	Err      error
}

// ForkResult is the outcome of a fork. Entries are in first-seen order.
type ForkResult struct {
	Source    domain.PartitionID
	Partition domain.PartitionID
	Entries   []ForkEntry
	Failures  []ForkFailure
}

// ForkerConfig holds Forker collaborators.
type ForkerConfig struct {
	Logs      LogLoader
	Snapshots SnapshotCloner
	Issuer    Issuer
	Opener    Opener
	URLs      URLBuilder

	// IDAttempts bounds retries when a drawn partition id is taken.
	IDAttempts int

	Logger *slog.Logger
}

// Forker continues a partition's session in a new, independent partition.
type Forker struct {
	logs       LogLoader
	snaps      SnapshotCloner
	issuer     Issuer
	opener     Opener
	urls       URLBuilder
	idAttempts int
	logger     *slog.Logger
	newID      func() (domain.PartitionID, error)

	forks   *prometheus.CounterVec
	elapsed prometheus.Histogram
}

// NewForker creates a Forker. Logs, Snapshots and Issuer are required;
// a nil Opener logs join URLs.
func NewForker(cfg ForkerConfig) (*Forker, error) {
	if cfg.Logs == nil || cfg.Snapshots == nil || cfg.Issuer == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("forker: logs, snapshots and issuer are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Opener == nil {
		cfg.Opener = LogOpener{Logger: cfg.Logger}
	}
	if cfg.IDAttempts <= 0 {
		cfg.IDAttempts = DefaultForkIDAttempts
	}
	return &Forker{
		logs:       cfg.Logs,
		snaps:      cfg.Snapshots,
		issuer:     cfg.Issuer,
		opener:     cfg.Opener,
		urls:       cfg.URLs,
		idAttempts: cfg.IDAttempts,
		logger:     cfg.Logger,
		newID:      domain.NewPartitionID,
	}, nil
}

// Fork clones src into a new partition and mints one credential per
// distinct participant of src's log, in first-seen order.
//
// The caller must Unload src from any live log store first. A missing
// snapshot, an empty or corrupt log, or an unparseable init or join record
// fails the whole fork; the cloned snapshot is left in place. Per-user
// issue or open failures are collected in ForkResult.Failures.
func (f *Forker) Fork(ctx context.Context, src domain.PartitionID) (*ForkResult, error) {
	start := time.Now()
	res, err := f.fork(ctx, src)
	f.observe(err, time.Since(start))
	return res, err
}

func (f *Forker) fork(ctx context.Context, src domain.PartitionID) (*ForkResult, error) {
	logger := f.logger.With("source", src.String())
	logger.InfoContext(ctx, "fork state", "state", ForkStart.String())

	if !f.snaps.Exists(src) {
		return nil, domain.ErrSnapshotNotFound.Detailf("partition %s", src)
	}
	dst, err := f.allocate()
	if err != nil {
		return nil, err
	}
	logger = logger.With("partition", dst.String())

	if err := f.snaps.Copy(src, dst); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "fork state", "state", ForkSnapshotCloned.String())

	records, err := f.logs.Load(src)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrEmptyLog.Detailf("partition %s", src)
	}
	identities, err := replayIdentities(records)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "fork state",
		"state", ForkReplaying.String(),
		"records", len(records),
		"participants", len(identities))

	res := &ForkResult{Source: src, Partition: dst}
	for _, id := range identities {
		entry, err := f.admit(ctx, dst, id)
		if err != nil {
			logger.WarnContext(ctx, "fork participant failed", "user_id", id.ID, "error", err)
			res.Failures = append(res.Failures, ForkFailure{Identity: id, Err: err})
			continue
		}
		res.Entries = append(res.Entries, entry)
	}

	logger.InfoContext(ctx, "fork state",
		"state", ForkDone.String(),
		"issued", len(res.Entries),
		"failed", len(res.Failures))
	return res, nil
}

// allocate draws a random partition id whose snapshot slot is free.
func (f *Forker) allocate() (domain.PartitionID, error) {
	for i := 0; i < f.idAttempts; i++ {
		id, err := f.newID()
		if err != nil {
			return 0, err
		}
		if !f.snaps.Exists(id) {
			return id, nil
		}
	}
	return 0, domain.ErrSnapshotExists.Detailf("no free partition id after %d attempts", f.idAttempts)
}

func (f *Forker) admit(ctx context.Context, dst domain.PartitionID, id domain.Identity) (ForkEntry, error) {
	cred, err := f.issuer.Issue(ctx, dst, id)
	if err != nil {
		return ForkEntry{}, err
	}
	joinURL := f.urls.Build(dst, cred.Token)
	if err := f.opener.Open(ctx, joinURL); err != nil {
		return ForkEntry{}, err
	}
	return ForkEntry{Identity: id, Credential: cred, JoinURL: joinURL}, nil
}

// replayIdentities mines participants from a partition log: the initiating
// identity of the first record, then each join record's identity. Repeats
// are dropped; first-seen order is kept.
func replayIdentities(records []domain.Record) ([]domain.Identity, error) {
	first, _, err := domain.ParseInitPayload(records[0].Payload)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{first.ID: {}}
	out := []domain.Identity{first}

	for _, rec := range records[1:] {
		if !domain.IsJoinPayload(rec.Payload) {
			continue
		}
		id, err := domain.ParseJoinPayload(rec.Payload)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id.ID]; ok {
			continue
		}
		seen[id.ID] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// RegisterMetrics registers fork counters. Returns the forker for chaining.
func (f *Forker) RegisterMetrics(registry prometheus.Registerer) *Forker {
	f.forks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tickstate",
		Subsystem: "fork",
		Name:      "total",
		Help:      "Fork attempts by outcome",
	}, []string{"outcome"})
	f.elapsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tickstate",
		Subsystem: "fork",
		Name:      "duration_seconds",
		Help:      "Fork duration",
		Buckets:   prometheus.DefBuckets,
	})
	registry.MustRegister(f.forks, f.elapsed)
	return f
}

func (f *Forker) observe(err error, d time.Duration) {
	if f.forks == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = domain.GetErrorCode(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	f.forks.WithLabelValues(outcome).Inc()
	f.elapsed.Observe(d.Seconds())
}
