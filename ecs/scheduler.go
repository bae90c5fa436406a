package ecs

import (
	"math"
	"reflect"
	"sort"
)

// StageID identifies a scheduler stage bucket (spec.md §4.7). Predefined
// stages occupy fixed values with wide gaps to admit insertion between
// them. UserStageBand marks the band reserved for hash-derived user stage
// ids; this package has no user stage types and derives no ids in that
// band, so every user stage is an explicit StageID value.
type StageID int32

const (
	StageMin     StageID = 0
	StageStartup StageID = 1000
	StageFirst   StageID = 100000
	StageUpdate  StageID = 300000
	StageLast    StageID = 800000
	StageMax     StageID = math.MaxInt32

	// UserStageBand is the lower bound of the reserved band user stage
	// types may be hashed into when they don't declare an explicit
	// priority.
	UserStageBand StageID = 2000000
)

type stageEntry struct {
	id      StageID
	systems []*Trampoline
}

// Scheduler is the stage-ordered execution engine: systems are bucketed
// by integer StageID and run in insertion order within a stage and
// ascending stage id across a run, plus integrated state-machine and
// event-store lifecycle bookkeeping (spec.md §4.7).
//
// Grounded on the teacher's ecs/scheduler.go ("a scheduler owns a
// *Storage and an ordered system list; Once flushes commands after
// running everything") — generalized from the teacher's single
// unordered []System slice (no stages, no state machine at all) to the
// spec's stage buckets plus hashed state-stage bands, new functional
// surface required by spec.md §4.7 that the teacher has no analog for;
// built in the teacher's reflective-registration idiom
// (ecs/registry_params.go).
type Scheduler struct {
	manager *Manager
	params  *ParamRegistry
	stages  map[StageID]*stageEntry
	order   []StageID
	states  map[reflect.Type]*stateSlot
	events  map[reflect.Type]eventStoreAny
}

// NewScheduler creates a Scheduler bound to m, with the four predefined
// stages (Startup, First, Update, Last) pre-registered and the built-in
// parameter providers wired.
func NewScheduler(m *Manager) *Scheduler {
	s := &Scheduler{
		manager: m,
		stages:  make(map[StageID]*stageEntry),
		states:  make(map[reflect.Type]*stateSlot),
		events:  make(map[reflect.Type]eventStoreAny),
	}
	s.params = newBuiltinParamRegistry(s)
	for _, id := range [...]StageID{StageStartup, StageFirst, StageUpdate, StageLast} {
		s.stages[id] = &stageEntry{id: id}
		s.order = append(s.order, id)
	}
	return s
}

// Manager returns the Scheduler's bound Manager.
func (s *Scheduler) Manager() *Manager { return s.manager }

// Params returns the Scheduler's parameter registry, so callers may
// Register additional ParamProvider kinds (spec.md §4.5, "the registry
// is extensible").
func (s *Scheduler) Params() *ParamRegistry { return s.params }

func (s *Scheduler) insertOrder(id StageID) {
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = id
}

// AddStage registers an empty stage at id. InvalidStageBoundsError
// outside [StageMin, StageMax]; StageExistsError if already present.
func (s *Scheduler) AddStage(id StageID) error {
	if id < StageMin || id > StageMax {
		return InvalidStageBoundsError{Stage: id}
	}
	if _, ok := s.stages[id]; ok {
		return StageExistsError{Stage: id}
	}
	s.stages[id] = &stageEntry{id: id}
	s.insertOrder(id)
	return nil
}

// RemoveStage discards a stage and every system registered to it. A
// no-op if id was never registered.
func (s *Scheduler) RemoveStage(id StageID) {
	if _, ok := s.stages[id]; !ok {
		return
	}
	delete(s.stages, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// AddSystem appends system — a plain function whose parameters are
// resolved via the Scheduler's ParamRegistry (spec.md §4.5) — to stage's
// list, auto-registering stage if it doesn't already exist.
func (s *Scheduler) AddSystem(stage StageID, system any) {
	e, ok := s.stages[stage]
	if !ok {
		e = &stageEntry{id: stage}
		s.stages[stage] = e
		s.insertOrder(stage)
	}
	e.systems = append(e.systems, s.params.Build(system))
}

// isStateStage reports whether id falls in one of the three state bands
// (OnExit/OnEnter/InState), each bandWidth wide and spaced 100M apart —
// NOT one contiguous span from stateOnExitBase, since the bands
// themselves have gaps between them.
func isStateStage(id StageID) bool {
	for _, base := range [...]StageID{stateOnExitBase, stateOnEnterBase, stateInStateBase} {
		if id >= base && id < base+bandWidth {
			return true
		}
	}
	return false
}

// RunStage invokes every system registered to stage, in insertion order,
// against a fresh SystemContext/Commands pair, flushing the Commands
// once every system has run and stopping at (and returning) the first
// system error. A state-specialized stage with no systems silently does
// nothing; any other unregistered stage is StageHasNoSystemsError
// (spec.md §4.7).
func (s *Scheduler) RunStage(stage StageID) error {
	e, ok := s.stages[stage]
	if !ok {
		if isStateStage(stage) {
			return nil
		}
		return StageHasNoSystemsError{Stage: stage}
	}
	ctx := &SystemContext{Manager: s.manager, Scheduler: s, Commands: newCommands()}
	for _, tr := range e.systems {
		if _, err := tr.Run(ctx); err != nil {
			return err
		}
	}
	return ctx.Commands.Flush(s.manager)
}

// RunStages invokes RunStage on every registered stage id within
// [start, end], ascending.
func (s *Scheduler) RunStages(start, end StageID) error {
	ids := append([]StageID(nil), s.order...)
	for _, id := range ids {
		if id < start || id > end {
			continue
		}
		if err := s.RunStage(id); err != nil {
			return err
		}
	}
	return nil
}

// GetStageInfo reports whether stage is registered and, if so, how many
// systems it currently holds.
func (s *Scheduler) GetStageInfo(stage StageID) (systemCount int, ok bool) {
	e, ok := s.stages[stage]
	if !ok {
		return 0, false
	}
	return len(e.systems), true
}

// registerEventStore installs store under t and appends its cleanup
// system at cleanupStage (spec.md §4.7, registerEvent's default
// behavior: "appends a cleanup system ... that drains both handled and
// unhandled events").
func (s *Scheduler) registerEventStore(t reflect.Type, store eventStoreAny, cleanupStage StageID) {
	s.events[t] = store
	s.AddSystem(cleanupStage, func() { store.cleanup() })
}

// RegisterEvent creates an EventStore[T], if one doesn't already exist
// (e.g. from an EventReader/EventWriter auto-create), with its cleanup
// system at the default Last stage.
func RegisterEvent[T any](s *Scheduler) {
	RegisterEventWithCleanupAtStage[T](s, StageLast)
}

// RegisterEventWithCleanupAtStage is RegisterEvent with an explicit
// cleanup stage.
func RegisterEventWithCleanupAtStage[T any](s *Scheduler, cleanupStage StageID) {
	t := reflect.TypeFor[T]()
	if _, ok := s.events[t]; ok {
		return
	}
	s.registerEventStore(t, newEventStore[T](), cleanupStage)
}
