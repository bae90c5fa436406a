package ecs

import (
	"reflect"
	"strings"
)

// newBuiltinParamRegistry builds the ParamRegistry wired with every
// built-in parameter kind of spec.md §4.5: Query, Single, Res, Local,
// EventReader, EventWriter, State, NextState, Relations, Commands,
// OnAdded, OnRemoved.
func newBuiltinParamRegistry(s *Scheduler) *ParamRegistry {
	r := NewParamRegistry()
	r.Register(queryParamProvider{})
	r.Register(singleParamProvider{})
	r.Register(resParamProvider{})
	r.Register(localParamProvider{})
	r.Register(eventReaderParamProvider{})
	r.Register(eventWriterParamProvider{})
	r.Register(stateParamProvider{})
	r.Register(nextStateParamProvider{})
	r.Register(onAddedParamProvider{})
	r.Register(onRemovedParamProvider{})
	r.Register(relationsParamProvider{})
	r.Register(commandsParamProvider{})
	r.Register(systemContextParamProvider{})
	return r
}

// hasGenericPointerPrefix reports whether t is a pointer to a struct
// whose (possibly generic-instantiated) name starts with prefix, e.g.
// "*Query[mypkg.Position,ecs.NoExclude]". Grounded on the teacher's
// ecs/scheduler.go, which tests `strings.HasPrefix(typeName, "Query[")`
// against a struct field's type name for the same reason: Go's reflect
// package cannot re-instantiate a generic type from its type arguments,
// so dispatch has to go by the name the compiler already baked in.
func hasGenericPointerPrefix(t reflect.Type, prefix string) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && strings.HasPrefix(t.Elem().Name(), prefix)
}

func hasGenericValuePrefix(t reflect.Type, prefix string) bool {
	return t.Kind() == reflect.Struct && strings.HasPrefix(t.Name(), prefix)
}

// callInit invokes v's "Init" method (found by name, exactly as the
// teacher's initializeQueries does with "Init"/"Execute"/
// "invalidateCache") with the given arguments and returns its declared
// error return, if any.
func callInit(v reflect.Value, args ...reflect.Value) error {
	out := v.MethodByName("Init").Call(args)
	if len(out) > 0 {
		if err, ok := out[len(out)-1].Interface().(error); ok {
			return err
		}
	}
	return nil
}

// --- Query[Include, Exclude] ---

type queryParamProvider struct{}

func (queryParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "Query[")
}

func (queryParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t.Elem())
	if err := callInit(v, reflect.ValueOf(ctx.Manager)); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (queryParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- Single[Include, Exclude] ---

type singleParamProvider struct{}

func (singleParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "Single[")
}

func (singleParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t.Elem())
	if err := callInit(v, reflect.ValueOf(ctx.Manager)); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (singleParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- Res[T] ---

// Res is the mutable-reference-to-resource-T system parameter (spec.md
// §4.5); fails at bind time if T has no installed singleton.
type Res[T any] struct {
	Value *T
}

// Init resolves the singleton of T from m, failing with
// ResourceNotFoundError if absent.
func (r *Res[T]) Init(m *Manager) error {
	v, ok := GetResource[T](m)
	if !ok {
		return ResourceNotFoundError{Type: reflectTypeOfT[T]()}
	}
	r.Value = v
	return nil
}

type resParamProvider struct{}

func (resParamProvider) analyze(t reflect.Type) bool { return hasGenericPointerPrefix(t, "Res[") }

func (resParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t.Elem())
	if err := callInit(v, reflect.ValueOf(ctx.Manager)); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (resParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- Local[T] ---

// Local is a per-system-function persistent cell that survives across
// scheduler invocations (spec.md §4.5).
type Local[T any] struct {
	Value T
}

type localParamProvider struct{}

func (localParamProvider) analyze(t reflect.Type) bool { return hasGenericPointerPrefix(t, "Local[") }

func (localParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	tr := ctx.currentTrampoline
	if existing, ok := tr.locals[t]; ok {
		return existing, nil
	}
	v := reflect.New(t.Elem())
	tr.locals[t] = v
	return v, nil
}

func (localParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- EventReader[T] / EventWriter[T] ---

type eventReaderParamProvider struct{}

func (eventReaderParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "EventReader[")
}

// apply caches the *EventReader[T] instance across calls in the
// trampoline's local slot (keyed by the pointer type), since a reader's
// cursor must persist between invocations — unlike Query/Res, which are
// cheap to rebuild every call.
func (eventReaderParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	tr := ctx.currentTrampoline
	v, ok := tr.locals[t]
	if !ok {
		v = reflect.New(t.Elem())
		tr.locals[t] = v
	}
	v.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Scheduler)})
	return v, nil
}

func (eventReaderParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

type eventWriterParamProvider struct{}

func (eventWriterParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "EventWriter[")
}

func (eventWriterParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t.Elem())
	v.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Scheduler)})
	return v, nil
}

func (eventWriterParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- State[E] / NextState[E] ---

// State is the read-only active-value-of-E system parameter.
type State[E any] struct {
	value E
	ok    bool
}

// Init snapshots E's active value at bind time.
func (s *State[E]) Init(sched *Scheduler) {
	s.value, s.ok = GetActiveState[E](sched)
}

// Get returns the snapshotted active value, and whether E had one.
func (s State[E]) Get() (E, bool) { return s.value, s.ok }

type stateParamProvider struct{}

func (stateParamProvider) analyze(t reflect.Type) bool { return hasGenericValuePrefix(t, "State[") }

func (stateParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(t)
	ptr.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Scheduler)})
	return ptr.Elem(), nil
}

func (stateParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// NextState is the transition-request handle for E.
type NextState[E any] struct {
	sched *Scheduler
}

// Init binds the handle to sched.
func (n *NextState[E]) Init(sched *Scheduler) { n.sched = sched }

// Set requests a transition to value, per spec.md §4.7's transitionTo.
func (n NextState[E]) Set(value E) error { return TransitionTo[E](n.sched, value) }

type nextStateParamProvider struct{}

func (nextStateParamProvider) analyze(t reflect.Type) bool {
	return hasGenericValuePrefix(t, "NextState[")
}

func (nextStateParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(t)
	ptr.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Scheduler)})
	return ptr.Elem(), nil
}

func (nextStateParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- OnAdded[T] / OnRemoved[T] ---

// OnAdded snapshots every entity that gained component T since this
// parameter's previous invocation (spec.md §4.5).
type OnAdded[T any] struct {
	cursor   int
	entities []Entity
}

// Init refreshes the snapshot from m's structural log.
func (o *OnAdded[T]) Init(m *Manager) {
	info := m.registry.mustInfoFor(reflectTypeOfT[T]())
	o.entities, o.cursor = m.structuralEventsSince(o.cursor, info.hash, true)
}

// Entities returns the entities that gained T since the previous call.
func (o *OnAdded[T]) Entities() []Entity { return o.entities }

// OnRemoved snapshots every entity that lost component T since this
// parameter's previous invocation.
type OnRemoved[T any] struct {
	cursor   int
	entities []Entity
}

// Init refreshes the snapshot from m's structural log.
func (o *OnRemoved[T]) Init(m *Manager) {
	info := m.registry.mustInfoFor(reflectTypeOfT[T]())
	o.entities, o.cursor = m.structuralEventsSince(o.cursor, info.hash, false)
}

// Entities returns the entities that lost T since the previous call.
func (o *OnRemoved[T]) Entities() []Entity { return o.entities }

type onAddedParamProvider struct{}

func (onAddedParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "OnAdded[")
}

func (onAddedParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	tr := ctx.currentTrampoline
	v, ok := tr.locals[t]
	if !ok {
		v = reflect.New(t.Elem())
		tr.locals[t] = v
	}
	v.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Manager)})
	return v, nil
}

func (onAddedParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

type onRemovedParamProvider struct{}

func (onRemovedParamProvider) analyze(t reflect.Type) bool {
	return hasGenericPointerPrefix(t, "OnRemoved[")
}

func (onRemovedParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	tr := ctx.currentTrampoline
	v, ok := tr.locals[t]
	if !ok {
		v = reflect.New(t.Elem())
		tr.locals[t] = v
	}
	v.MethodByName("Init").Call([]reflect.Value{reflect.ValueOf(ctx.Manager)})
	return v, nil
}

func (onRemovedParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// --- Relations / Commands ---

var relationManagerType = reflect.TypeFor[*RelationManager]()

type relationsParamProvider struct{}

func (relationsParamProvider) analyze(t reflect.Type) bool { return t == relationManagerType }

func (relationsParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(ctx.Manager.relations), nil
}

func (relationsParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

var commandsType = reflect.TypeFor[*Commands]()

type commandsParamProvider struct{}

func (commandsParamProvider) analyze(t reflect.Type) bool { return t == commandsType }

func (commandsParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(ctx.Commands), nil
}

func (commandsParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

// systemContextParamProvider hands a system its own *SystemContext
// verbatim. This is what makes the func(*SystemContext) error values
// produced by Pipe/RunIf (ecs/trampoline.go) schedulable via
// Scheduler.AddSystem like any other system: their sole parameter is
// claimed by this provider instead of falling through to
// UnknownSystemParamError.
var systemContextType = reflect.TypeFor[*SystemContext]()

type systemContextParamProvider struct{}

func (systemContextParamProvider) analyze(t reflect.Type) bool { return t == systemContextType }

func (systemContextParamProvider) apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error) {
	return reflect.ValueOf(ctx), nil
}

func (systemContextParamProvider) deinit(*SystemContext, reflect.Type, reflect.Value) {}

func reflectTypeOfT[T any]() reflect.Type { return reflect.TypeFor[T]() }
