package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meetsync/signal-server/internal/audit"
	"github.com/meetsync/signal-server/internal/cache"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/kafka"
	"github.com/meetsync/signal-server/internal/repository"
	pkglog "github.com/meetsync/signal-server/pkg/log"
)

// EventKind identifies a membership change to reconcile.
type EventKind string

const (
	EventJoin  EventKind = "join"
	EventLeave EventKind = "leave"
)

// Event is one membership change. Events carry their own timestamps so a
// backlogged worker still records faithful join/end times.
type Event struct {
	Kind         EventKind
	MeetingID    string
	UserID       string
	ConnectionID string
	At           time.Time
}

// Synchronizer reconciles live membership changes into the persisted
// meeting ledger. Relay handlers only enqueue; a dedicated worker performs
// the storage writes, so a slow or failing store never delays message
// relay. Storage errors are logged and swallowed; the ledger is a
// best-effort audit trail.
type Synchronizer struct {
	repo     repository.MeetingRepository
	cache    cache.MeetingCache         // optional: invalidated on writes
	producer kafka.MeetingEventProducer // optional: lifecycle events

	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool

	opTimeout time.Duration
}

// NewSynchronizer creates a ledger synchronizer with the given queue depth.
// cache and producer may be nil.
func NewSynchronizer(repo repository.MeetingRepository, meetingCache cache.MeetingCache, producer kafka.MeetingEventProducer, queueSize int) *Synchronizer {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Synchronizer{
		repo:      repo,
		cache:     meetingCache,
		producer:  producer,
		events:    make(chan Event, queueSize),
		done:      make(chan struct{}),
		opTimeout: 10 * time.Second,
	}
}

// Start launches the reconciliation worker.
func (s *Synchronizer) Start() {
	go s.run()
}

// Stop closes the queue and waits for the worker to drain it, bounded by
// the context. Events recorded after Stop are dropped; hijacked
// connections can outlive server shutdown and still report leaves.
func (s *Synchronizer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordJoin enqueues a join for reconciliation.
func (s *Synchronizer) RecordJoin(meetingID, userID, connectionID string) {
	s.enqueue(Event{
		Kind:         EventJoin,
		MeetingID:    meetingID,
		UserID:       userID,
		ConnectionID: connectionID,
		At:           time.Now(),
	})
}

// RecordLeave enqueues a leave for reconciliation.
func (s *Synchronizer) RecordLeave(meetingID, userID, connectionID string) {
	s.enqueue(Event{
		Kind:         EventLeave,
		MeetingID:    meetingID,
		UserID:       userID,
		ConnectionID: connectionID,
		At:           time.Now(),
	})
}

// enqueue never blocks the relay path. A full or stopped queue drops the
// event with a log line.
func (s *Synchronizer) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		pkglog.L().Warn().
			Str(pkglog.FieldMeetingID, ev.MeetingID).
			Str(pkglog.FieldConnectionID, ev.ConnectionID).
			Str("event", string(ev.Kind)).
			Msg("ledger stopped, membership event dropped")
		return
	}
	select {
	case s.events <- ev:
	default:
		pkglog.L().Warn().
			Str(pkglog.FieldMeetingID, ev.MeetingID).
			Str(pkglog.FieldConnectionID, ev.ConnectionID).
			Str("event", string(ev.Kind)).
			Msg("ledger queue full, membership event dropped")
	}
}

func (s *Synchronizer) run() {
	defer close(s.done)
	for ev := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
		s.apply(ctx, ev)
		cancel()
	}
}

func (s *Synchronizer) apply(ctx context.Context, ev Event) {
	var err error
	switch ev.Kind {
	case EventJoin:
		err = s.applyJoin(ctx, ev)
	case EventLeave:
		err = s.applyLeave(ctx, ev)
	}
	if err != nil {
		pkglog.L().Error().Err(err).
			Str(pkglog.FieldMeetingID, ev.MeetingID).
			Str(pkglog.FieldConnectionID, ev.ConnectionID).
			Str("event", string(ev.Kind)).
			Msg("meeting ledger reconciliation failed")
		return
	}
	s.invalidate(ctx, ev.MeetingID)
}

func (s *Synchronizer) applyJoin(ctx context.Context, ev Event) error {
	meeting, err := s.repo.FindByMeetingID(ctx, ev.MeetingID)
	if errors.Is(err, repository.ErrMeetingNotFound) {
		return s.createMeeting(ctx, ev)
	}
	if err != nil {
		return err
	}

	changed := meeting.AddParticipant(domain.Participant{
		UserID:   ev.UserID,
		SocketID: ev.ConnectionID,
		JoinedAt: ev.At,
	})
	if !meeting.IsActive {
		meeting.IsActive = true
		changed = true
	}
	if meeting.StartedAt == nil {
		at := ev.At
		meeting.StartedAt = &at
		changed = true
	}
	if !changed {
		return nil
	}
	if err := s.repo.Save(ctx, meeting); err != nil {
		return err
	}

	s.produce(ctx, func(p kafka.MeetingEventProducer) error {
		return p.ProduceParticipantJoined(ctx, ev.MeetingID, ev.UserID)
	})
	return nil
}

// createMeeting records the first joiner as host. A concurrent create from
// another instance is resolved by falling back to the update path.
func (s *Synchronizer) createMeeting(ctx context.Context, ev Event) error {
	at := ev.At
	meeting := &domain.Meeting{
		MeetingID: ev.MeetingID,
		HostID:    ev.UserID,
		Participants: []domain.Participant{{
			UserID:   ev.UserID,
			SocketID: ev.ConnectionID,
			JoinedAt: ev.At,
		}},
		StartedAt: &at,
		IsActive:  true,
	}

	err := s.repo.Create(ctx, meeting)
	if errors.Is(err, repository.ErrMeetingExists) {
		return s.applyJoin(ctx, ev)
	}
	if err != nil {
		return err
	}

	s.produce(ctx, func(p kafka.MeetingEventProducer) error {
		return p.ProduceMeetingStarted(ctx, ev.MeetingID, ev.UserID)
	})
	return nil
}

func (s *Synchronizer) applyLeave(ctx context.Context, ev Event) error {
	meeting, err := s.repo.FindByMeetingID(ctx, ev.MeetingID)
	if errors.Is(err, repository.ErrMeetingNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !meeting.RemoveParticipant(ev.ConnectionID) {
		// Already reconciled; leaves are idempotent.
		return nil
	}

	ended := false
	if len(meeting.Participants) == 0 {
		at := ev.At
		meeting.IsActive = false
		meeting.EndedAt = &at
		ended = true
	}

	if err := s.repo.Save(ctx, meeting); err != nil {
		return err
	}

	s.produce(ctx, func(p kafka.MeetingEventProducer) error {
		return p.ProduceParticipantLeft(ctx, ev.MeetingID, ev.UserID)
	})
	if ended {
		audit.Log(ctx, audit.ActionEndMeeting, ev.UserID, ev.MeetingID, "meeting ended")
		s.produce(ctx, func(p kafka.MeetingEventProducer) error {
			return p.ProduceMeetingEnded(ctx, ev.MeetingID)
		})
	}
	return nil
}

func (s *Synchronizer) invalidate(ctx context.Context, meetingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cache.BuildKey(meetingID)); err != nil {
		pkglog.L().Warn().Err(err).Str(pkglog.FieldMeetingID, meetingID).Msg("failed to invalidate meeting cache")
	}
}

func (s *Synchronizer) produce(ctx context.Context, fn func(kafka.MeetingEventProducer) error) {
	if s.producer == nil {
		return
	}
	if err := fn(s.producer); err != nil {
		pkglog.L().Warn().Err(err).Msg("failed to produce meeting event")
	}
}
