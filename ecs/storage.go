package ecs

import "github.com/kamstrup/intmap"

// EntityLocation is the sparse index's value type: where entity id's data
// currently lives (spec.md §3, "Entity index (sparse)").
type EntityLocation struct {
	archetype *Archetype
	row       int
}

// ArchetypeStorage owns the signature->archetype catalog (signatures are
// never shared across archetypes) and the sparse entity->location index.
// Grounded on the teacher's ecs/storage.go (Storage.archetypes map +
// get-or-create-on-Spawn idiom), with the sparse index switched from the
// teacher's bit-packed EntityId to an intmap.Map[uint32, EntityLocation]
// (DESIGN.md, Archetype storage) so a row can move independently of any
// value encoded in the entity handle.
type ArchetypeStorage struct {
	registry   *ComponentRegistry
	byKey      map[uint64]*Archetype
	order      []*Archetype
	sparse     *intmap.Map[uint32, EntityLocation]
}

func newArchetypeStorage(registry *ComponentRegistry) *ArchetypeStorage {
	return &ArchetypeStorage{
		registry: registry,
		byKey:    make(map[uint64]*Archetype),
		sparse:   intmap.New[uint32, EntityLocation](256),
	}
}

// getOrCreate returns the archetype for signature sig, creating it (with
// empty columns) if this is the first time sig has been seen (spec.md
// §4.2).
func (s *ArchetypeStorage) getOrCreate(sig Signature) *Archetype {
	key := sig.Key()
	if a, ok := s.byKey[key]; ok {
		return a
	}
	a := newArchetype(sig, s.registry)
	s.byKey[key] = a
	s.order = append(s.order, a)
	return a
}

// add upserts the archetype for sig, appends the row, and records the new
// sparse location. The caller must have already removed any prior
// location for e.ID (spec.md §4.2: "On re-adds of the same id the caller
// is required to have removed the old location first").
func (s *ArchetypeStorage) add(e Entity, sig Signature, data [][]byte) (*Archetype, int) {
	a := s.getOrCreate(sig)
	row := a.addEntity(e, data)
	s.sparse.Put(e.ID, EntityLocation{archetype: a, row: row})
	return a, row
}

// remove tombstones the sparse entry for id. Per spec.md §9's resolution
// of the storage-vs-manager split, it does not touch the archetype's row
// data or list — the caller (Manager) performs the archetype swap-remove
// and propagates the resulting moved-entity update via setLocation.
func (s *ArchetypeStorage) remove(id uint32) {
	s.sparse.Del(id)
}

// locate returns the current location of entity id, if any.
func (s *ArchetypeStorage) locate(id uint32) (EntityLocation, bool) {
	return s.sparse.Get(id)
}

// setLocation updates the sparse index for id, used by the Manager to
// propagate a swap-move after removeRow reports a displaced entity.
func (s *ArchetypeStorage) setLocation(id uint32, loc EntityLocation) {
	s.sparse.Put(id, loc)
}

// archetypes returns every archetype ever created, in creation order. The
// query engine iterates this list and applies its own include/exclude
// filter; order across archetypes is explicitly unspecified by spec.md
// §4.4, so creation order is as good as any stable order.
func (s *ArchetypeStorage) archetypes() []*Archetype {
	return s.order
}

// archetypeCount returns the number of archetypes currently known to the storage.
func (s *ArchetypeStorage) archetypeCount() int {
	return len(s.order)
}
