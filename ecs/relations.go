package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// RelationManager maintains, per relation kind K, an outgoing index
// (source entity id -> target entities) and the symmetric incoming index
// (target entity id -> source entities). Whether multiple targets per
// source are allowed is configured per kind at Register time (spec.md
// §3, "Relations").
//
// Grounded on TheBitDrifter/warehouse's entity.go SetParent/Parent
// (relationships struct: a child entity carries a single parent link,
// propagated through a destroy callback) — generalized from warehouse's
// single hard-coded "parent" relation to the spec's arbitrary,
// registrable relation kinds, each independently indexed.
type RelationManager struct {
	manager  *Manager
	kinds    map[reflect.Type]*relationKind
	reserved map[reflect.Type]bool
}

type relationKind struct {
	typ         reflect.Type
	multi       bool
	outgoing    *intmap.Map[uint32, []relationEdge]
	incoming    *intmap.Map[uint32, []relationEdge]
}

type relationEdge struct {
	other Entity
	data  any
}

func newRelationManager(m *Manager) *RelationManager {
	return &RelationManager{
		manager:  m,
		kinds:    make(map[reflect.Type]*relationKind),
		reserved: make(map[reflect.Type]bool),
	}
}

// RegisterRelation registers K as a relation kind. Components of type K
// are thereafter reserved: the generic Manager addComponent/
// removeComponent API rejects them (spec.md §4.3), steering callers to
// Add/Remove below, which keep the cross-entity indices consistent.
func RegisterRelation[K any](rm *RelationManager, multi bool) {
	t := reflect.TypeFor[K]()
	if _, ok := rm.kinds[t]; ok {
		return
	}
	rm.kinds[t] = &relationKind{
		typ:      t,
		multi:    multi,
		outgoing: intmap.New[uint32, []relationEdge](16),
		incoming: intmap.New[uint32, []relationEdge](16),
	}
	rm.reserved[t] = true
}

func (rm *RelationManager) isReservedType(t reflect.Type) bool {
	return rm.reserved[t]
}

func (rm *RelationManager) kindFor(t reflect.Type) *relationKind {
	k, ok := rm.kinds[t]
	if !ok {
		panicTrace(ComponentNotRegisteredError{Type: t})
	}
	return k
}

// Add records a directed K-edge from -> to. If K does not allow multiple
// targets per source, this replaces any existing outgoing edge.
func Add[K any](rm *RelationManager, from, to Entity) {
	AddWithData[K](rm, from, to, nil)
}

// AddWithData is Add plus an opaque payload stored alongside the edge.
func AddWithData[K any](rm *RelationManager, from, to Entity, data any) {
	k := rm.kindFor(reflect.TypeFor[K]())
	if !k.multi {
		if existing, ok := k.outgoing.Get(from.ID); ok {
			for _, e := range existing {
				removeIncoming(k, e.other, from)
			}
		}
		k.outgoing.Put(from.ID, []relationEdge{{other: to, data: data}})
	} else {
		existing, _ := k.outgoing.Get(from.ID)
		k.outgoing.Put(from.ID, append(existing, relationEdge{other: to, data: data}))
	}
	incoming, _ := k.incoming.Get(to.ID)
	k.incoming.Put(to.ID, append(incoming, relationEdge{other: from, data: data}))
}

// Remove deletes the K-edge from -> to, if any.
func Remove[K any](rm *RelationManager, from, to Entity) {
	k := rm.kindFor(reflect.TypeFor[K]())
	if edges, ok := k.outgoing.Get(from.ID); ok {
		k.outgoing.Put(from.ID, filterEdges(edges, to))
	}
	removeIncoming(k, to, from)
}

func removeIncoming(k *relationKind, of Entity, other Entity) {
	if edges, ok := k.incoming.Get(of.ID); ok {
		k.incoming.Put(of.ID, filterEdges(edges, other))
	}
}

func filterEdges(edges []relationEdge, drop Entity) []relationEdge {
	out := edges[:0]
	for _, e := range edges {
		if e.other != drop {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether a K-edge from -> to exists.
func Has[K any](rm *RelationManager, from, to Entity) bool {
	k := rm.kindFor(reflect.TypeFor[K]())
	edges, ok := k.outgoing.Get(from.ID)
	if !ok {
		return false
	}
	for _, e := range edges {
		if e.other == to {
			return true
		}
	}
	return false
}

// GetParent returns the single outgoing K-target of e (the "parent"),
// valid only when K was registered with multi=false.
func GetParent[K any](rm *RelationManager, e Entity) (Entity, bool) {
	k := rm.kindFor(reflect.TypeFor[K]())
	edges, ok := k.outgoing.Get(e.ID)
	if !ok || len(edges) == 0 {
		return Entity{}, false
	}
	return edges[0].other, true
}

// GetParents returns every outgoing K-target of e.
func GetParents[K any](rm *RelationManager, e Entity) []Entity {
	k := rm.kindFor(reflect.TypeFor[K]())
	edges, _ := k.outgoing.Get(e.ID)
	out := make([]Entity, len(edges))
	for i, edge := range edges {
		out[i] = edge.other
	}
	return out
}

// GetChild returns a single incoming K-source of e, if any.
func GetChild[K any](rm *RelationManager, e Entity) (Entity, bool) {
	k := rm.kindFor(reflect.TypeFor[K]())
	edges, ok := k.incoming.Get(e.ID)
	if !ok || len(edges) == 0 {
		return Entity{}, false
	}
	return edges[0].other, true
}

// GetChildren returns every incoming K-source of e.
func GetChildren[K any](rm *RelationManager, e Entity) []Entity {
	k := rm.kindFor(reflect.TypeFor[K]())
	edges, _ := k.incoming.Get(e.ID)
	out := make([]Entity, len(edges))
	for i, edge := range edges {
		out[i] = edge.other
	}
	return out
}

// removeEntity drops every edge touching e, across every registered
// relation kind. Called by Manager.Destroy (spec.md §3: destroy "invokes
// relation cleanup").
func (rm *RelationManager) removeEntity(e Entity) {
	for _, k := range rm.kinds {
		if edges, ok := k.outgoing.Get(e.ID); ok {
			for _, edge := range edges {
				removeIncoming(k, edge.other, e)
			}
			k.outgoing.Del(e.ID)
		}
		if edges, ok := k.incoming.Get(e.ID); ok {
			for _, edge := range edges {
				if out, ok := k.outgoing.Get(edge.other.ID); ok {
					k.outgoing.Put(edge.other.ID, filterEdges(out, e))
				}
			}
			k.incoming.Del(e.ID)
		}
	}
}
