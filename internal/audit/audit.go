// Package audit records security-relevant operations (program lifecycle,
// area deletion, system-identity injection) to a Mongo collection without
// blocking the request path.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api/metrics"
)

const defaultBuffer = 256

// Entry is one audit record.
type Entry struct {
	Action    string    `bson:"action"`
	ActorID   string    `bson:"actor_id"`
	ActorRole string    `bson:"actor_role,omitempty"`
	ProgramID string    `bson:"program_id,omitempty"`
	AreaID    string    `bson:"area_id,omitempty"`
	Detail    string    `bson:"detail,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

// Actions recorded by the API layer.
const (
	ActionProgramCreated = "program.created"
	ActionProgramDeleted = "program.deleted"
	ActionAreaDeleted    = "area.deleted"
	ActionSystemIdentity = "auth.system_identity"
)

// Sink persists entries. Implementations must tolerate being called from a
// single background goroutine.
type Sink interface {
	Insert(ctx context.Context, e Entry) error
}

// Recorder is the write side handed to the API layer.
type Recorder interface {
	Record(e Entry)
}

// Trail buffers entries on a channel drained by one worker goroutine, so a
// slow audit store never stalls request handling.
type Trail struct {
	ch   chan Entry
	sink Sink
	log  zerolog.Logger
}

// NewTrail creates a Trail with the given buffer size (defaultBuffer when
// <= 0).
func NewTrail(buffer int, sink Sink, log zerolog.Logger) *Trail {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Trail{
		ch:   make(chan Entry, buffer),
		sink: sink,
		log:  log,
	}
}

// Start launches the worker. It stops when ctx is cancelled, draining
// whatever is already buffered.
func (t *Trail) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				t.drain()
				return
			case e := <-t.ch:
				t.write(e)
			}
		}
	}()
}

// Record enqueues an entry without blocking. A full buffer drops the entry
// with a warning; losing an audit record is preferable to stalling the
// request.
func (t *Trail) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case t.ch <- e:
	default:
		t.log.Warn().Str("action", e.Action).Msg("audit buffer full, entry dropped")
	}
	metrics.AuditQueueDepth.Set(float64(len(t.ch)))
}

// Depth reports the number of buffered entries, for metrics.
func (t *Trail) Depth() int {
	return len(t.ch)
}

func (t *Trail) drain() {
	for {
		select {
		case e := <-t.ch:
			t.write(e)
		default:
			return
		}
	}
}

func (t *Trail) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.sink.Insert(ctx, e); err != nil {
		t.log.Warn().Err(err).Str("action", e.Action).Msg("failed to persist audit entry")
	}
	metrics.AuditQueueDepth.Set(float64(len(t.ch)))
}
