package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// eventRecord is one posted event plus its handled flag (spec.md §3,
// "Event store (per type T)").
type eventRecord[T any] struct {
	payload T
	handled bool
}

// eventStoreAny is the type-erased face of EventStore[T] the Scheduler
// keeps one of per registered event type, so cleanup can run without
// knowing T.
type eventStoreAny interface {
	discardHandled()
	discardUnhandled()
	cleanup()
}

// EventStore is the append-only queue of T events plus per-reader
// cursors (spec.md §3/§6). No example repo in the retrieval pack
// implements an event queue; this is built in the teacher's "typed
// generic wrapper sharing a registry-resolved backing store" idiom
// (c.f. the teacher's Singleton[T] / Query[T]).
type EventStore[T any] struct {
	records    []eventRecord[T]
	cursors    *intmap.Map[uint32, int]
	nextReader uint32
}

func newEventStore[T any]() *EventStore[T] {
	return &EventStore[T]{cursors: intmap.New[uint32, int](8)}
}

// Push appends an unhandled event.
func (s *EventStore[T]) Push(payload T) {
	s.records = append(s.records, eventRecord[T]{payload: payload})
}

// Count returns the number of events currently retained (handled and
// unhandled).
func (s *EventStore[T]) Count() int { return len(s.records) }

// IsEmpty reports whether the store currently holds no events.
func (s *EventStore[T]) IsEmpty() bool { return len(s.records) == 0 }

// GetAllEvents returns every retained payload, in post order.
func (s *EventStore[T]) GetAllEvents() []T {
	out := make([]T, len(s.records))
	for i, r := range s.records {
		out[i] = r.payload
	}
	return out
}

// newReader allocates a fresh cursor starting at the current write
// position (a reader never sees events posted before it was created).
func (s *EventStore[T]) newReader() uint32 {
	id := s.nextReader
	s.nextReader++
	s.cursors.Put(id, len(s.records))
	return id
}

// iterator drains unread events for reader, marking them handled.
func (s *EventStore[T]) iterator(reader uint32) []T {
	pos, _ := s.cursors.Get(reader)
	if pos >= len(s.records) {
		return nil
	}
	out := make([]T, 0, len(s.records)-pos)
	for i := pos; i < len(s.records); i++ {
		s.records[i].handled = true
		out = append(out, s.records[i].payload)
	}
	s.cursors.Put(reader, len(s.records))
	return out
}

// discardHandled drops every handled record, compacting cursors.
func (s *EventStore[T]) discardHandled() {
	kept := s.records[:0]
	removedBefore := make([]int, len(s.records)+1)
	dropped := 0
	for i, r := range s.records {
		removedBefore[i] = dropped
		if r.handled {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	removedBefore[len(s.records)] = dropped
	s.records = kept
	s.cursors.ForEach(func(reader uint32, pos int) bool {
		if pos > len(removedBefore)-1 {
			pos = len(removedBefore) - 1
		}
		s.cursors.Put(reader, pos-removedBefore[pos])
		return true
	})
}

// discardUnhandled drops every never-read record, compacting cursors.
func (s *EventStore[T]) discardUnhandled() {
	kept := s.records[:0]
	removedBefore := make([]int, len(s.records)+1)
	dropped := 0
	for i, r := range s.records {
		removedBefore[i] = dropped
		if !r.handled {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	removedBefore[len(s.records)] = dropped
	s.records = kept
	s.cursors.ForEach(func(reader uint32, pos int) bool {
		if pos > len(removedBefore)-1 {
			pos = len(removedBefore) - 1
		}
		s.cursors.Put(reader, pos-removedBefore[pos])
		return true
	})
}

// cleanup discards every record, handled or not, and rewinds every
// reader's cursor to zero. This is what the scheduler's per-event
// auto-appended cleanup system runs at the configured stage (spec.md
// §3, "Cleanup at a configured stage discards both handled and
// unhandled events").
func (s *EventStore[T]) cleanup() {
	s.records = s.records[:0]
	s.cursors.ForEach(func(reader uint32, _ int) bool {
		s.cursors.Put(reader, 0)
		return true
	})
}

// EventReader is the read-side system parameter for T (spec.md §4.5):
// each reader owns an independent cursor into the shared EventStore[T].
type EventReader[T any] struct {
	store  *EventStore[T]
	reader uint32
	inited bool
}

// Init binds the reader to sched's event store for T, auto-creating the
// store on first use, and allocates this reader's cursor once.
func (r *EventReader[T]) Init(sched *Scheduler) {
	r.store = eventStoreFor[T](sched)
	if !r.inited {
		r.reader = r.store.newReader()
		r.inited = true
	}
}

// Read drains every event posted since the previous Read by this reader.
func (r *EventReader[T]) Read() []T { return r.store.iterator(r.reader) }

// EventWriter is the write-side system parameter for T.
type EventWriter[T any] struct {
	store *EventStore[T]
}

// Init binds the writer to sched's event store for T.
func (w *EventWriter[T]) Init(sched *Scheduler) { w.store = eventStoreFor[T](sched) }

// Write posts an event.
func (w *EventWriter[T]) Write(payload T) { w.store.Push(payload) }

// eventStoreFor returns sched's EventStore[T], creating and registering
// it (with the default Last-stage cleanup) on first use.
func eventStoreFor[T any](sched *Scheduler) *EventStore[T] {
	t := reflect.TypeFor[T]()
	if existing, ok := sched.events[t]; ok {
		return existing.(*EventStore[T])
	}
	store := newEventStore[T]()
	sched.registerEventStore(t, store, StageLast)
	return store
}
