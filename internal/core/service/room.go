package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/core/delta"
	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
	"github.com/yndnr/tickstate-go/internal/storage/snapshot"
)

// Frame is one message for the transport: an encoded delta (or a full
// snapshot for FullState) stamped with its tick time.
type Frame struct {
	Time    uint64
	Payload []byte
	Full    bool
}

// Transport delivers frames to a partition's connected receivers.
//
// Broadcast must not retain f.Payload after returning; the Room reuses the
// buffer on the next tick.
type Transport interface {
	Broadcast(ctx context.Context, p domain.PartitionID, f Frame) error
}

// ActionLog is the append side of a partition log.
type ActionLog interface {
	Append(p domain.PartitionID, timeMs uint64, payload []byte) error
	Unload(p domain.PartitionID)
}

// SnapshotSaver persists the latest materialized state of a partition.
type SnapshotSaver interface {
	Save(p domain.PartitionID, t *schema.Type, n *schema.Node) (*snapshot.Info, error)
}

// RoomConfig holds Room collaborators.
type RoomConfig struct {
	Partition domain.PartitionID
	Type      *schema.Type

	// Initial is the state before the first action.
	Initial *schema.Node

	Log       ActionLog
	Snapshots SnapshotSaver // optional
	Transport Transport

	Logger *slog.Logger
}

// Room drives one partition: game logic commits explicit state versions,
// each tick broadcasts the delta since the last broadcast, and each
// accepted action is appended to the log before its state is adopted.
//
// Committed nodes are owned by the Room; callers build the next version
// from a Clone instead of mutating a committed node.
type Room struct {
	p      domain.PartitionID
	t      *schema.Type
	log    ActionLog
	snaps  SnapshotSaver
	tr     Transport
	logger *slog.Logger

	mu       sync.Mutex
	current  *schema.Node
	last     *schema.Node
	lastTick uint64
	enc      *delta.Encoder
	closed   bool

	metrics *roomMetrics
}

// NewRoom validates the initial state and returns a Room.
func NewRoom(cfg RoomConfig) (*Room, error) {
	if cfg.Type == nil || cfg.Log == nil || cfg.Transport == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("room: type, log and transport are required")
	}
	if err := schema.Validate(cfg.Type, cfg.Initial); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Room{
		p:       cfg.Partition,
		t:       cfg.Type,
		log:     cfg.Log,
		snaps:   cfg.Snapshots,
		tr:      cfg.Transport,
		logger:  cfg.Logger.With("partition", cfg.Partition.String()),
		current: cfg.Initial,
		last:    cfg.Initial,
		enc:     delta.NewEncoder(256),
	}, nil
}

// Partition returns the room's partition id.
func (r *Room) Partition() domain.PartitionID {
	return r.p
}

// Begin writes the init record naming the initiating participant and
// persists the initial snapshot. It must be the first record of the log.
func (r *Room) Begin(ctx context.Context, timeMs uint64, initiator domain.Identity, args []byte) error {
	block, err := domain.MarshalIdentity(initiator)
	if err != nil {
		return domain.ErrInvalidArgument.WithCause(err)
	}
	payload, err := domain.EncodeInitPayload(block, args)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.appendLocked(timeMs, payload); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "room started", "initiator", initiator.ID)
	return r.saveLocked()
}

// Join records a participant joining and adopts next.
func (r *Room) Join(ctx context.Context, timeMs uint64, id domain.Identity, next *schema.Node) error {
	block, err := domain.MarshalIdentity(id)
	if err != nil {
		return domain.ErrInvalidArgument.WithCause(err)
	}
	payload, err := domain.EncodeJoinPayload(block)
	if err != nil {
		return err
	}
	if err := r.Accept(ctx, timeMs, payload, next); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "participant joined", "user_id", id.ID)
	return nil
}

// Accept validates next, appends the action record, adopts next as the
// current state and persists it. An invalid next state is rejected before
// anything is written.
func (r *Room) Accept(ctx context.Context, timeMs uint64, payload []byte, next *schema.Node) error {
	if err := schema.Validate(r.t, next); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.appendLocked(timeMs, payload); err != nil {
		return err
	}
	r.current = next
	return r.saveLocked()
}

// Commit adopts next as the current state without recording an action.
func (r *Room) Commit(next *schema.Node) error {
	if err := schema.Validate(r.t, next); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrStoreClosed
	}
	r.current = next
	return nil
}

// Current returns the committed state. The node must not be mutated.
func (r *Room) Current() *schema.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Tick diffs the last broadcast state against the current one and
// broadcasts the encoded delta. Unchanged state still produces an
// envelope frame. The current state becomes the last broadcast state only
// if the transport accepts the frame.
func (r *Room) Tick(ctx context.Context, timeMs uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrStoreClosed
	}

	d, err := delta.Diff(r.t, r.last, r.current)
	if err != nil {
		return err
	}
	payload, err := r.enc.Encode(r.t, d)
	if err != nil {
		return err
	}
	if err := r.tr.Broadcast(ctx, r.p, Frame{Time: timeMs, Payload: payload}); err != nil {
		r.logger.WarnContext(ctx, "broadcast failed", "time", timeMs, "error", err)
		return err
	}

	r.last = r.current
	r.lastTick = timeMs
	if r.metrics != nil {
		r.metrics.ticks.Inc()
		r.metrics.frameBytes.Observe(float64(len(payload)))
	}
	return nil
}

// FullState returns the last broadcast state as a full snapshot frame. A
// receiver that starts from it can apply every following tick's delta.
func (r *Room) FullState() (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := schema.MarshalValue(r.t, r.last)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Time: r.lastTick, Payload: payload, Full: true}, nil
}

// Close releases the partition's log handle. Later calls fail with
// domain.ErrStoreClosed.
func (r *Room) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.log.Unload(r.p)
	return nil
}

func (r *Room) appendLocked(timeMs uint64, payload []byte) error {
	if r.closed {
		return domain.ErrStoreClosed
	}
	if err := r.log.Append(r.p, timeMs, payload); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.actions.Inc()
	}
	return nil
}

func (r *Room) saveLocked() error {
	if r.snaps == nil {
		return nil
	}
	_, err := r.snaps.Save(r.p, r.t, r.current)
	return err
}

type roomMetrics struct {
	ticks      prometheus.Counter
	actions    prometheus.Counter
	frameBytes prometheus.Histogram
}

// RoomMetrics are shared by every Room of a process.
type RoomMetrics struct {
	m *roomMetrics
}

// NewRoomMetrics creates and registers room collectors.
func NewRoomMetrics(registry prometheus.Registerer) *RoomMetrics {
	m := &roomMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "room",
			Name:      "ticks_total",
			Help:      "Tick frames broadcast",
		}),
		actions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickstate",
			Subsystem: "room",
			Name:      "actions_total",
			Help:      "Accepted actions appended to partition logs",
		}),
		frameBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tickstate",
			Subsystem: "room",
			Name:      "frame_bytes",
			Help:      "Encoded delta size per tick",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	registry.MustRegister(m.ticks, m.actions, m.frameBytes)
	return &RoomMetrics{m: m}
}

// WithMetrics attaches shared collectors. Returns the room for chaining.
func (r *Room) WithMetrics(m *RoomMetrics) *Room {
	if m != nil {
		r.metrics = m.m
	}
	return r
}
