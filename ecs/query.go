package ecs

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// queryFieldKind classifies one field of a Query's Include struct.
type queryFieldKind int

const (
	queryFieldRequired queryFieldKind = iota
	queryFieldOptional
	queryFieldEntity
)

type queryField struct {
	kind   queryFieldKind
	hash   TypeHash
	offset uintptr
}

var entityType = reflect.TypeFor[Entity]()

// NoExclude is the Exclude type argument for a Query/Single that excludes
// nothing.
type NoExclude struct{}

// analyzeIncludeFields reflects over Include once per Query construction
// (spec.md §4.4, "per-archetype setup... computed once per matching
// archetype, not per row" — the field plan itself is computed once per
// Query, column indices once per archetype below).
//
// Grounded on the teacher's ecs/view.go NewView[T]: embedded/named
// pointer fields name required components, an `ecs:"optional"` tag marks
// optional ones. Generalized with a third field kind, a bare Entity
// field, which the teacher's View never supported.
func analyzeIncludeFields(t reflect.Type, registry *ComponentRegistry) []queryField {
	if t.Kind() != reflect.Struct {
		panicTrace(ComponentNotRegisteredError{Type: t})
	}
	fields := make([]queryField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type == entityType {
			fields[i] = queryField{kind: queryFieldEntity, offset: f.Offset}
			continue
		}
		if f.Type.Kind() != reflect.Pointer {
			panicTrace(ComponentNotRegisteredError{Type: f.Type})
		}
		info := registry.mustInfoFor(f.Type.Elem())
		kind := queryFieldRequired
		if f.Tag.Get("ecs") == "optional" {
			kind = queryFieldOptional
		}
		fields[i] = queryField{kind: kind, hash: info.hash, offset: f.Offset}
	}
	return fields
}

// excludeHashes reflects over an Exclude struct's fields (plain component
// value types, never pointers, since they're never yielded) into their
// type hashes.
func excludeHashes(t reflect.Type, registry *ComponentRegistry) []TypeHash {
	if t.Kind() != reflect.Struct {
		panicTrace(ComponentNotRegisteredError{Type: t})
	}
	out := make([]TypeHash, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		info := registry.mustInfoFor(t.Field(i).Type)
		out[i] = info.hash
	}
	return out
}

// Query iterates archetypes whose signature includes every required
// field of Include and none of Exclude (spec.md §4.4). Include's fields
// are populated in place: required/optional fields become component
// pointers, a bare Entity field becomes the row's entity handle.
//
// Grounded on the teacher's ecs/view.go (View[T], unsafe.Pointer struct
// population) and ecs/query.go (archetype-set caching) — generalized
// with an Exclude type parameter and mask-based fast filtering
// (DESIGN.md, Query engine), grounded on warehouse/query.go's
// compositeNode.Evaluate (ContainsAll/ContainsNone over a mask.Mask256).
type Query[Include any, Exclude any] struct {
	manager *Manager
	fields  []queryField
	incMask mask.Mask256
	excMask mask.Mask256
}

// NewQuery specializes a Query against m's component registry.
func NewQuery[Include any, Exclude any](m *Manager) *Query[Include, Exclude] {
	q := &Query[Include, Exclude]{}
	q.Init(m)
	return q
}

// Init (re-)specializes q against m. Exported with this exact name and a
// single *Manager argument so the QueryParam provider (ecs/registry_params.go)
// can invoke it reflectively on a freshly `reflect.New`-ed instance whose
// type parameters are already baked in by the caller's declared field type
// — the same trick the teacher's ecs/scheduler.go uses to call Init/Execute
// on a struct's Query[T] fields by method name.
func (q *Query[Include, Exclude]) Init(m *Manager) {
	q.manager = m
	q.fields = analyzeIncludeFields(reflect.TypeFor[Include](), m.registry)
	q.incMask = mask.Mask256{}
	q.excMask = mask.Mask256{}
	for _, f := range q.fields {
		if f.kind != queryFieldRequired {
			continue
		}
		if info, ok := m.registry.infoForHash(f.hash); ok {
			q.incMask.Mark(info.bit)
		}
	}
	for _, h := range excludeHashes(reflect.TypeFor[Exclude](), m.registry) {
		if info, ok := m.registry.infoForHash(h); ok {
			q.excMask.Mark(info.bit)
		}
	}
}

func (q *Query[Include, Exclude]) matches(a *Archetype) bool {
	return a.mask.ContainsAll(q.incMask) && a.mask.ContainsNone(q.excMask)
}

// columnsFor computes, once per matching archetype, each include field's
// column index in a (or -1 for an absent optional/Entity field).
func (q *Query[Include, Exclude]) columnsFor(a *Archetype) []int {
	cols := make([]int, len(q.fields))
	for i, f := range q.fields {
		if f.kind == queryFieldEntity {
			cols[i] = -1
			continue
		}
		cols[i] = a.columnIndex(f.hash)
	}
	return cols
}

// fill populates one Include value for (a, row) using precomputed column
// indices, writing directly through unsafe.Pointer field offsets exactly
// as the teacher's View.Fill does.
func (q *Query[Include, Exclude]) fill(dst unsafe.Pointer, a *Archetype, row int, cols []int) {
	for i, f := range q.fields {
		fieldPtr := unsafe.Pointer(uintptr(dst) + f.offset)
		switch f.kind {
		case queryFieldEntity:
			*(*Entity)(fieldPtr) = a.EntityAt(row)
		case queryFieldRequired, queryFieldOptional:
			if cols[i] < 0 {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			*(*unsafe.Pointer)(fieldPtr) = a.componentPtr(cols[i], row)
		}
	}
}

// Each calls yield once per matching row, in archetype-then-row order
// (spec.md §4.4). Stops early if yield returns false.
func (q *Query[Include, Exclude]) Each(yield func(*Include) bool) {
	for _, a := range q.manager.storage.archetypes() {
		if !q.matches(a) {
			continue
		}
		cols := q.columnsFor(a)
		for row := 0; row < a.RowCount(); row++ {
			var item Include
			q.fill(unsafe.Pointer(&item), a, row, cols)
			if !yield(&item) {
				return
			}
		}
	}
}

// Collect materializes every matching row. Prefer Each for hot paths; use
// Collect in tests and one-shot diagnostics.
func (q *Query[Include, Exclude]) Collect() []Include {
	var out []Include
	q.Each(func(item *Include) bool {
		out = append(out, *item)
		return true
	})
	return out
}

// Count returns the number of matching rows without materializing them.
func (q *Query[Include, Exclude]) Count() int {
	n := 0
	for _, a := range q.manager.storage.archetypes() {
		if q.matches(a) {
			n += a.RowCount()
		}
	}
	return n
}
