package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// resourceEntry is one singleton resource's registration: a reflect.Value
// pointer so Res[T] parameters can hand out *T without a second allocation.
type resourceEntry struct {
	typ reflect.Type
	val reflect.Value // addressable, kind Ptr to the stored T
}

// resourceTable is the "type_hash -> owned value" table of spec.md §3; at
// most one instance per type. Grounded on the teacher's ecs/singleton.go
// Singleton[T] (one instance per type, resolved through the storage),
// generalized from the teacher's always-auto-vivifying singleton to the
// spec's explicit add/remove-with-existence-errors contract (addResource
// errors on a second add, removeResource on a missing one; getResource
// reports a missing one with ok=false).
// The exported typed API lives on *Manager (ecs/manager.go); this type
// only holds the reflect-keyed table itself.
type resourceTable struct {
	byHash *intmap.Map[TypeHash, *resourceEntry]
}

func newResourceTable() *resourceTable {
	return &resourceTable{byHash: intmap.New[TypeHash, *resourceEntry](16)}
}

// ListResourceTypes returns the reflect.Type of every installed resource.
func (rt *resourceTable) ListResourceTypes() []reflect.Type {
	out := make([]reflect.Type, 0, rt.byHash.Len())
	rt.byHash.ForEach(func(_ TypeHash, e *resourceEntry) bool {
		out = append(out, e.typ)
		return true
	})
	return out
}

// resourceValueByHash returns the raw reflect.Value (pointer kind) of the
// resource keyed by h, for callers that know only T's hash, not T itself.
func (rt *resourceTable) resourceValueByHash(h TypeHash) (reflect.Value, bool) {
	entry, ok := rt.byHash.Get(h)
	if !ok {
		return reflect.Value{}, false
	}
	return entry.val, true
}
