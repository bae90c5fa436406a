package ecs

import (
	"fmt"
	"reflect"
)

// Typed error values for every §7 error kind of spec.md, in the idiom of
// TheBitDrifter/warehouse's errors.go: one struct per reason, carrying the
// operands that caused it rather than a bare string.

// EntityNotAliveError reports an operation attempted on an unknown or
// destroyed entity.
type EntityNotAliveError struct {
	Entity Entity
}

func (e EntityNotAliveError) Error() string {
	return fmt.Sprintf("entity not alive: %v", e.Entity)
}

// ResourceAlreadyExistsError reports addResource on a type with a singleton
// already installed.
type ResourceAlreadyExistsError struct {
	Type reflect.Type
}

func (e ResourceAlreadyExistsError) Error() string {
	return fmt.Sprintf("resource already exists: %s", e.Type)
}

// ResourceNotFoundError reports removeResource, or the binding of a Res[T]
// system parameter, on a type with no singleton installed.
type ResourceNotFoundError struct {
	Type reflect.Type
}

func (e ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Type)
}

// StageExistsError reports addStage called twice for the same id.
type StageExistsError struct {
	Stage StageID
}

func (e StageExistsError) Error() string {
	return fmt.Sprintf("stage already exists: %d", e.Stage)
}

// StageHasNoSystemsError reports runStage called on an unregistered,
// non-state-specialized stage.
type StageHasNoSystemsError struct {
	Stage StageID
}

func (e StageHasNoSystemsError) Error() string {
	return fmt.Sprintf("stage has no systems: %d", e.Stage)
}

// InvalidStageBoundsError reports addStage called outside [StageMin, StageMax].
type InvalidStageBoundsError struct {
	Stage StageID
}

func (e InvalidStageBoundsError) Error() string {
	return fmt.Sprintf("stage id out of bounds: %d", e.Stage)
}

// StateAlreadyRegisteredError reports registerState called twice for the
// same enum type.
type StateAlreadyRegisteredError struct {
	Type reflect.Type
}

func (e StateAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("state already registered: %s", e.Type)
}

// StateNotRegisteredError reports transitionTo on an enum type never
// passed to registerState.
type StateNotRegisteredError struct {
	Type reflect.Type
}

func (e StateNotRegisteredError) Error() string {
	return fmt.Sprintf("state not registered: %s", e.Type)
}

// ExpectedEnumTypeError reports a State parameter type that isn't the
// registered enum type.
type ExpectedEnumTypeError struct {
	Type reflect.Type
}

func (e ExpectedEnumTypeError) Error() string {
	return fmt.Sprintf("expected enum type, got: %s", e.Type)
}

// SingleComponentNotFoundError reports a Single[I,E] parameter whose query
// matched zero rows.
type SingleComponentNotFoundError struct {
	Query string
}

func (e SingleComponentNotFoundError) Error() string {
	return fmt.Sprintf("Single query matched no rows: %s", e.Query)
}

// SingleComponentAmbiguousError reports a Single[I,E] parameter whose query
// matched more than one row.
type SingleComponentAmbiguousError struct {
	Query string
	Count int
}

func (e SingleComponentAmbiguousError) Error() string {
	return fmt.Sprintf("Single query matched %d rows, expected exactly one: %s", e.Count, e.Query)
}

// UnknownSystemParamError reports a system parameter type no registered
// ParamProvider claimed.
type UnknownSystemParamError struct {
	Type reflect.Type
}

func (e UnknownSystemParamError) Error() string {
	return fmt.Sprintf("no param provider claims type: %s", e.Type)
}

// SystemContextNullError reports a trampoline invoked with a nil context;
// this is always a programming error in the scheduler itself.
type SystemContextNullError struct{}

func (e SystemContextNullError) Error() string {
	return "system context is nil"
}

// ReservedRelationTypeError reports addComponent/removeComponent called
// with a type registered as a relation kind; callers must route through
// RelationManager instead (spec.md §4.3).
type ReservedRelationTypeError struct {
	Type reflect.Type
}

func (e ReservedRelationTypeError) Error() string {
	return fmt.Sprintf("component type %s is a reserved relation kind, use RelationManager", e.Type)
}

// PendingEntityDereferencedError reports code dereferencing an
// EntityCommands pending handle before Commands.Flush resolved it
// (spec.md §4.6: "must fail loudly").
type PendingEntityDereferencedError struct{}

func (e PendingEntityDereferencedError) Error() string {
	return "pending entity dereferenced before flush"
}

// ComponentNotRegisteredError reports a component type used before
// RegisterComponent.
type ComponentNotRegisteredError struct {
	Type reflect.Type
}

func (e ComponentNotRegisteredError) Error() string {
	return fmt.Sprintf("component type not registered: %s", e.Type)
}

// ArchetypeColumnCountMismatchError reports addEntity called with a
// different number of data slices than the archetype has columns — a
// caller (Manager.buildRow/addComponentAny/removeComponentAny) failed to
// keep a row's data in signature order.
type ArchetypeColumnCountMismatchError struct {
	Got, Want int
}

func (e ArchetypeColumnCountMismatchError) Error() string {
	return fmt.Sprintf("archetype column count mismatch: got %d slices, want %d", e.Got, e.Want)
}

// ArchetypeColumnSizeMismatchError reports addEntity called with a data
// slice whose length doesn't match its column's registered component
// size.
type ArchetypeColumnSizeMismatchError struct {
	Type      reflect.Type
	Got, Want int
}

func (e ArchetypeColumnSizeMismatchError) Error() string {
	return fmt.Sprintf("archetype column size mismatch for %s: got %d bytes, want %d", e.Type, e.Got, e.Want)
}

// ArchetypeRowOutOfRangeError reports removeRow called with a row index
// outside the archetype's current bounds — a sparse-index/location
// bookkeeping bug in the Manager, never a caller-facing condition.
type ArchetypeRowOutOfRangeError struct {
	Row, RowCount int
}

func (e ArchetypeRowOutOfRangeError) Error() string {
	return fmt.Sprintf("archetype row out of range: %d (row count %d)", e.Row, e.RowCount)
}
