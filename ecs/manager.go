package ecs

import (
	"reflect"
	"unsafe"
)

// Manager is the top-level façade coordinating entity lifecycle,
// component add/remove (which triggers archetype migration), the
// resource table, and query construction (spec.md §4.3).
//
// Grounded on the teacher's ecs/storage.go AddComponent/RemoveComponent
// migration logic (copy every shared column into a get-or-create target
// archetype, append the new/removed value, drop the old row) —
// generalized from the teacher's tombstone-slot archetype to the spec's
// swap-remove archetype (ecs/archetype.go) and explicit sparse index
// (ecs/storage.go).
type Manager struct {
	registry  *ComponentRegistry
	storage   *ArchetypeStorage
	resources *resourceTable
	alloc     *entityAllocator
	relations *RelationManager
	structLog []structuralEvent
}

// structuralEvent is one add/remove-component transition, appended to
// Manager.structLog so OnAdded[T]/OnRemoved[T] system parameters
// (ecs/registry_params.go) can each track their own "since my previous
// invocation" cursor into a single shared log (spec.md §4.5).
type structuralEvent struct {
	hash  TypeHash
	e     Entity
	added bool
}

// NewManager creates a Manager backed by registry. Component types must
// be registered on registry (RegisterComponent[T]) before use.
func NewManager(registry *ComponentRegistry) *Manager {
	m := &Manager{
		registry:  registry,
		storage:   newArchetypeStorage(registry),
		resources: newResourceTable(),
		alloc:     newEntityAllocator(),
	}
	m.relations = newRelationManager(m)
	return m
}

// CreateEmpty creates a new entity registered in the empty archetype.
func (m *Manager) CreateEmpty() Entity {
	e := m.alloc.alloc()
	sig := BuildSignature(nil)
	m.storage.add(e, sig, nil)
	return e
}

// Create creates a new entity in the archetype whose signature equals the
// sorted set of the given components' types.
func (m *Manager) Create(components ...any) Entity {
	e := m.alloc.alloc()
	sig, data := m.buildRow(components)
	m.storage.add(e, sig, data)
	return e
}

// CreateBatch creates n entities, each with the same components
// replicated, inserted contiguously into the target archetype.
func (m *Manager) CreateBatch(n int, components ...any) []Entity {
	sig, data := m.buildRow(components)
	out := make([]Entity, n)
	for i := 0; i < n; i++ {
		e := m.alloc.alloc()
		// addEntity appends copies of data's bytes; reusing the same byte
		// slices across rows is safe because Archetype.addEntity copies
		// via append, never retaining the slice itself.
		m.storage.add(e, sig, data)
		out[i] = e
	}
	return out
}

// buildRow validates and sorts components into signature order, returning
// the signature and one byte slice per column.
func (m *Manager) buildRow(components []any) (Signature, [][]byte) {
	hashes := make([]TypeHash, len(components))
	for i, c := range components {
		_, t := componentPtrAndType(c)
		info := m.registry.mustInfoFor(t)
		hashes[i] = info.hash
	}
	sig := BuildSignature(hashes)
	data := make([][]byte, sig.Len())
	for i, h := range sig.types {
		for _, c := range components {
			_, t := componentPtrAndType(c)
			info := m.registry.mustInfoFor(t)
			if info.hash == h {
				data[i] = componentBytes(c, info.size)
				break
			}
		}
	}
	return sig, data
}

// IsAlive reports whether e names a currently-live entity: the sparse
// index has an entry for e.ID and the recorded generation matches.
func (m *Manager) IsAlive(e Entity) bool {
	_, err := m.locate(e)
	return err == nil
}

// locate resolves e to its current archetype/row, or EntityNotAliveError.
func (m *Manager) locate(e Entity) (EntityLocation, error) {
	loc, ok := m.storage.locate(e.ID)
	if !ok {
		return EntityLocation{}, EntityNotAliveError{Entity: e}
	}
	gen, ok := m.alloc.generationOf(e.ID)
	if !ok || gen != e.Generation {
		return EntityLocation{}, EntityNotAliveError{Entity: e}
	}
	return loc, nil
}

// Destroy removes e's row from its archetype (swap-remove), tombstones
// the sparse index, and notifies the relation manager.
func (m *Manager) Destroy(e Entity) error {
	loc, err := m.locate(e)
	if err != nil {
		return err
	}
	moved, ok := loc.archetype.removeRow(loc.row)
	m.storage.remove(e.ID)
	if ok {
		m.storage.setLocation(moved.ID, EntityLocation{archetype: loc.archetype, row: loc.row})
	}
	m.relations.removeEntity(e)
	m.alloc.bump(e.ID)
	return nil
}

func (m *Manager) addComponentAny(e Entity, t reflect.Type, v any) error {
	loc, err := m.locate(e)
	if err != nil {
		return err
	}
	if m.relations.isReservedType(t) {
		return ReservedRelationTypeError{Type: t}
	}
	info := m.registry.mustInfoFor(t)
	old := loc.archetype

	if idx := old.columnIndex(info.hash); idx >= 0 {
		// Already present: update in place, no migration.
		writeComponentBytes(old.componentPtr(idx, loc.row), v, info.size)
		return nil
	}

	newHashes := append(append([]TypeHash(nil), old.signature.types...), info.hash)
	newSig := BuildSignature(newHashes)
	newArch := m.storage.getOrCreate(newSig)

	data := make([][]byte, newSig.Len())
	for i, h := range newSig.types {
		if h == info.hash {
			data[i] = componentBytes(v, info.size)
			continue
		}
		data[i] = old.rowBytes(old.columnIndex(h), loc.row)
	}

	newRow := newArch.addEntity(e, data)
	m.storage.setLocation(e.ID, EntityLocation{archetype: newArch, row: newRow})

	moved, ok := old.removeRow(loc.row)
	if ok {
		m.storage.setLocation(moved.ID, EntityLocation{archetype: old, row: loc.row})
	}
	m.structLog = append(m.structLog, structuralEvent{hash: info.hash, e: e, added: true})
	return nil
}

func (m *Manager) removeComponentAny(e Entity, t reflect.Type) error {
	loc, err := m.locate(e)
	if err != nil {
		return err
	}
	if m.relations.isReservedType(t) {
		return ReservedRelationTypeError{Type: t}
	}
	info := m.registry.mustInfoFor(t)
	old := loc.archetype
	if old.columnIndex(info.hash) < 0 {
		// Not present: no-op, per spec.md §4.3.
		return nil
	}

	newHashes := make([]TypeHash, 0, len(old.signature.types)-1)
	for _, h := range old.signature.types {
		if h != info.hash {
			newHashes = append(newHashes, h)
		}
	}
	newSig := BuildSignature(newHashes)
	newArch := m.storage.getOrCreate(newSig)

	data := make([][]byte, newSig.Len())
	for i, h := range newSig.types {
		data[i] = old.rowBytes(old.columnIndex(h), loc.row)
	}

	newRow := newArch.addEntity(e, data)
	m.storage.setLocation(e.ID, EntityLocation{archetype: newArch, row: newRow})

	moved, ok := old.removeRow(loc.row)
	if ok {
		m.storage.setLocation(moved.ID, EntityLocation{archetype: old, row: loc.row})
	}
	m.structLog = append(m.structLog, structuralEvent{hash: info.hash, e: e, added: false})
	return nil
}

func (m *Manager) getComponentAny(e Entity, t reflect.Type) (unsafe.Pointer, bool, error) {
	loc, err := m.locate(e)
	if err != nil {
		return nil, false, err
	}
	info := m.registry.mustInfoFor(t)
	idx := loc.archetype.columnIndex(info.hash)
	if idx < 0 {
		return nil, false, nil
	}
	return loc.archetype.componentPtr(idx, loc.row), true, nil
}

func (m *Manager) hasComponentAny(e Entity, t reflect.Type) (bool, error) {
	loc, err := m.locate(e)
	if err != nil {
		return false, err
	}
	info := m.registry.mustInfoFor(t)
	return loc.archetype.columnIndex(info.hash) >= 0, nil
}

// AddComponent moves e to the archetype (old signature) ∪ {T}, copying
// every existing column and appending v, or updates v in place if T is
// already present.
func AddComponent[T any](m *Manager, e Entity, v T) error {
	return m.addComponentAny(e, reflect.TypeFor[T](), v)
}

// RemoveComponent migrates e to the archetype (old signature) \ {T}; a
// no-op if T was not present.
func RemoveComponent[T any](m *Manager, e Entity) error {
	return m.removeComponentAny(e, reflect.TypeFor[T]())
}

// GetComponent returns a pointer to e's T component, or ok=false if T is
// not present on e.
func GetComponent[T any](m *Manager, e Entity) (ptr *T, ok bool, err error) {
	raw, ok, err := m.getComponentAny(e, reflect.TypeFor[T]())
	if err != nil || !ok {
		return nil, ok, err
	}
	return (*T)(raw), true, nil
}

// HasComponent reports whether e carries a T component.
func HasComponent[T any](m *Manager, e Entity) (bool, error) {
	return m.hasComponentAny(e, reflect.TypeFor[T]())
}

// GetAllComponents returns a copy of every component value currently
// stored for e (spec.md §6).
func (m *Manager) GetAllComponents(e Entity) ([]any, error) {
	loc, err := m.locate(e)
	if err != nil {
		return nil, err
	}
	out := make([]any, loc.archetype.signature.Len())
	for i, info := range loc.archetype.infos {
		ptr := loc.archetype.componentPtr(i, loc.row)
		out[i] = reflect.NewAt(info.typ, ptr).Elem().Interface()
	}
	return out, nil
}

// AddResource inserts a singleton of T. Returns ResourceAlreadyExistsError
// if one is already installed.
func AddResource[T any](m *Manager, v T) error {
	t := reflect.TypeFor[T]()
	h := hashType(t)
	if _, ok := m.resources.byHash.Get(h); ok {
		return ResourceAlreadyExistsError{Type: t}
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(v))
	m.resources.byHash.Put(h, &resourceEntry{typ: t, val: ptr})
	return nil
}

// GetResource returns a mutable pointer to the singleton of T, or
// ok=false if absent.
func GetResource[T any](m *Manager) (ptr *T, ok bool) {
	entry, ok := m.resources.byHash.Get(hashType(reflect.TypeFor[T]()))
	if !ok {
		return nil, false
	}
	return entry.val.Interface().(*T), true
}

// HasResource reports whether a singleton of T is installed.
func HasResource[T any](m *Manager) bool {
	_, ok := m.resources.byHash.Get(hashType(reflect.TypeFor[T]()))
	return ok
}

// RemoveResource removes the singleton of T. Returns ResourceNotFoundError
// if none was installed.
func RemoveResource[T any](m *Manager) error {
	t := reflect.TypeFor[T]()
	h := hashType(t)
	if _, ok := m.resources.byHash.Get(h); !ok {
		return ResourceNotFoundError{Type: t}
	}
	m.resources.byHash.Del(h)
	return nil
}

// ListResourceTypes returns the reflect.Type of every installed resource.
func (m *Manager) ListResourceTypes() []reflect.Type {
	return m.resources.ListResourceTypes()
}

// Count returns the total number of live entities across every archetype.
func (m *Manager) Count() int {
	total := 0
	for _, a := range m.storage.archetypes() {
		total += a.RowCount()
	}
	return total
}

// Relations returns the manager's relation index.
func (m *Manager) Relations() *RelationManager { return m.relations }

// structuralEventsSince returns every add (or remove, per added) event
// for hash recorded at or after cursor, plus the log length to resume
// from on the next call (backing OnAdded[T]/OnRemoved[T]).
func (m *Manager) structuralEventsSince(cursor int, hash TypeHash, added bool) ([]Entity, int) {
	var out []Entity
	for i := cursor; i < len(m.structLog); i++ {
		ev := m.structLog[i]
		if ev.hash == hash && ev.added == added {
			out = append(out, ev.e)
		}
	}
	return out, len(m.structLog)
}

// writeComponentBytes overwrites the size bytes at dst with v's bytes.
func writeComponentBytes(dst unsafe.Pointer, v any, size uintptr) {
	if size == 0 {
		return
	}
	src, _ := componentPtrAndType(v)
	dstSlice := unsafe.Slice((*byte)(dst), size)
	srcSlice := unsafe.Slice((*byte)(src), size)
	copy(dstSlice, srcSlice)
}

