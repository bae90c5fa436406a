package ecs

import (
	"fmt"
	"hash/fnv"
	"reflect"
)

// Reserved stage bands for the OnExit/OnEnter/InState state-machine
// stages (spec.md §4.7/§9, "Scheduler state stages via hashing"). Placed
// well above UserStageBand so a hash-derived user stage id can never
// collide with a state-specialized one.
const (
	bandWidth        StageID = 50_000_000
	stateOnExitBase  StageID = 500_000_000
	stateOnEnterBase StageID = 600_000_000
	stateInStateBase StageID = 700_000_000
)

func stateValueName(v reflect.Value) string {
	return fmt.Sprintf("%v", v.Interface())
}

// stateStageID derives the StageID for (base, enumType, value) by hashing
// the (type, variant name) pair into an offset within base's band.
// Collisions are accepted policy, not defended against, exactly as
// spec.md §9 describes.
func stateStageID(base StageID, enumType reflect.Type, v reflect.Value) StageID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(enumType.PkgPath() + "." + enumType.Name() + "::" + stateValueName(v)))
	offset := StageID(h.Sum64() % uint64(bandWidth))
	return base + offset
}

// OnEnter returns the stage id run when E transitions into value.
func OnEnter[E any](value E) StageID {
	return stateStageID(stateOnEnterBase, reflect.TypeFor[E](), reflect.ValueOf(value))
}

// OnExit returns the stage id run when E transitions out of value.
func OnExit[E any](value E) StageID {
	return stateStageID(stateOnExitBase, reflect.TypeFor[E](), reflect.ValueOf(value))
}

// InState returns the stage id run every frame while E == value.
func InState[E any](value E) StageID {
	return stateStageID(stateInStateBase, reflect.TypeFor[E](), reflect.ValueOf(value))
}

// stateSlot is the Scheduler's bookkeeping for one registered state enum
// type (spec.md §3, "active_state: optional {enum_type_hash, value_hash,
// value_name}").
type stateSlot struct {
	enumType reflect.Type
	active   reflect.Value
	hasValue bool
}

// RegisterState records E as an accepted state-transition type. Returns
// StateAlreadyRegisteredError if E was already registered.
func RegisterState[E any](s *Scheduler) error {
	t := reflect.TypeFor[E]()
	if _, ok := s.states[t]; ok {
		return StateAlreadyRegisteredError{Type: t}
	}
	s.states[t] = &stateSlot{enumType: t}
	return nil
}

// TransitionTo validates that E is registered, then — if value differs
// from the current active value — runs OnExit(old) (best-effort: absence
// of systems there is not an error), updates active_state, and runs
// OnEnter(value) (spec.md §4.7).
func TransitionTo[E any](s *Scheduler, value E) error {
	t := reflect.TypeFor[E]()
	slot, ok := s.states[t]
	if !ok {
		return StateNotRegisteredError{Type: t}
	}
	newVal := reflect.ValueOf(value)
	if slot.hasValue && slot.active.Interface() == newVal.Interface() {
		return nil
	}
	if slot.hasValue {
		if err := s.RunStage(OnExit(slot.active.Interface().(E))); err != nil {
			return err
		}
	}
	slot.active = newVal
	slot.hasValue = true
	return s.RunStage(OnEnter(value))
}

// RunInStateSystems runs InState(value)'s stage; absence of systems
// there is not an error.
func RunInStateSystems[E any](s *Scheduler, value E) error {
	return s.RunStage(InState(value))
}

// RunActiveStateSystems runs the InState stage for E's current active
// value, if any is set.
func RunActiveStateSystems[E any](s *Scheduler) error {
	t := reflect.TypeFor[E]()
	slot, ok := s.states[t]
	if !ok || !slot.hasValue {
		return nil
	}
	return s.RunStage(InState(slot.active.Interface().(E)))
}

// IsInState reports whether E's active value equals value.
func IsInState[E any](s *Scheduler, value E) bool {
	t := reflect.TypeFor[E]()
	slot, ok := s.states[t]
	if !ok || !slot.hasValue {
		return false
	}
	return slot.active.Interface().(E) == any(value)
}

// GetActiveState returns E's current active value.
func GetActiveState[E any](s *Scheduler) (value E, ok bool) {
	t := reflect.TypeFor[E]()
	slot, present := s.states[t]
	if !present || !slot.hasValue {
		return value, false
	}
	return slot.active.Interface().(E), true
}

// GetActiveStateName returns the string form of E's current active
// value, as used to derive its stage ids.
func GetActiveStateName[E any](s *Scheduler) (string, bool) {
	v, ok := GetActiveState[E](s)
	if !ok {
		return "", false
	}
	return stateValueName(reflect.ValueOf(v)), true
}
