package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/mask"
)

// Archetype is storage for every entity that shares a signature: a dense,
// insertion-ordered entity list and one contiguous byte column per
// component type in the signature, row r of column k starting at byte
// offset r*size(k) (spec.md §3/§4.1).
//
// Grounded on the teacher's ecs/archetype.go for the overall shape (one
// block of typed storages per unique type set) and
// ecs/generic_component_storage.go for packed per-type storage; rewritten
// against raw byte columns per spec.md's data model, and against
// swap-remove-with-moved-entity-report (the teacher instead tombstones a
// slot and never moves rows, which does not satisfy spec.md §4.1/§9).
type Archetype struct {
	signature Signature
	infos     []*typeInfo // parallel to signature.types, ascending hash order
	columns   [][]byte
	entities  []Entity
	mask      mask.Mask256
}

func newArchetype(sig Signature, registry *ComponentRegistry) *Archetype {
	infos := make([]*typeInfo, sig.Len())
	var m mask.Mask256
	for i, h := range sig.types {
		info, ok := registry.infoForHash(h)
		if !ok {
			panicTrace(ComponentNotRegisteredError{})
		}
		infos[i] = info
		m.Mark(info.bit)
	}
	return &Archetype{
		signature: sig,
		infos:     infos,
		columns:   make([][]byte, len(infos)),
		mask:      m,
	}
}

// RowCount returns the number of live rows (== len(entities)).
func (a *Archetype) RowCount() int { return len(a.entities) }

// ColumnSignature returns the archetype's identifying signature.
func (a *Archetype) ColumnSignature() Signature { return a.signature }

// Mask returns the precomputed bitmask used by the query engine's
// fast-path archetype filter (DESIGN.md, Query engine).
func (a *Archetype) Mask() mask.Mask256 { return a.mask }

// columnIndex returns the column holding hash h, or -1. Archetypes
// typically carry a handful of component types, so linear scan beats the
// bookkeeping of a side map.
func (a *Archetype) columnIndex(h TypeHash) int {
	for i, info := range a.infos {
		if info.hash == h {
			return i
		}
	}
	return -1
}

// addEntity appends entity e and one byte slice per column (in signature
// order, each exactly the column's element size) to this archetype,
// returning the new row index (spec.md §4.1).
func (a *Archetype) addEntity(e Entity, data [][]byte) int {
	if len(data) != len(a.infos) {
		panicTrace(ArchetypeColumnCountMismatchError{Got: len(data), Want: len(a.infos)})
	}
	row := len(a.entities)
	a.entities = append(a.entities, e)
	for i, bytes := range data {
		size := a.infos[i].size
		if uintptr(len(bytes)) != size {
			panicTrace(ArchetypeColumnSizeMismatchError{Type: a.infos[i].typ, Got: len(bytes), Want: int(size)})
		}
		a.columns[i] = append(a.columns[i], bytes...)
	}
	return row
}

// removeRow swap-removes row r: the last row's bytes are copied into r's
// slot in every column (and the entity list), then the tail is truncated.
// Returns the entity that now occupies row r, or ok=false if r was the
// last row (nothing moved). The caller (ArchetypeStorage/Manager) is
// responsible for updating the sparse index for the moved entity.
func (a *Archetype) removeRow(r int) (moved Entity, ok bool) {
	last := len(a.entities) - 1
	if r < 0 || r > last {
		panicTrace(ArchetypeRowOutOfRangeError{Row: r, RowCount: len(a.entities)})
	}
	for i, info := range a.infos {
		size := info.size
		if size == 0 {
			continue
		}
		col := a.columns[i]
		if r != last {
			copy(col[uintptr(r)*size:uintptr(r+1)*size], col[uintptr(last)*size:uintptr(last+1)*size])
		}
		a.columns[i] = col[:uintptr(last)*size]
	}
	if r != last {
		a.entities[r] = a.entities[last]
		moved, ok = a.entities[r], true
	}
	a.entities = a.entities[:last]
	return moved, ok
}

// componentPtr returns an unsafe pointer to the component bytes at
// (colIdx, row). The caller knows the element size/type from the column's
// typeInfo.
func (a *Archetype) componentPtr(colIdx, row int) unsafe.Pointer {
	size := a.infos[colIdx].size
	if size == 0 {
		return unsafe.Pointer(a)
	}
	return unsafe.Pointer(&a.columns[colIdx][uintptr(row)*size])
}

// rowBytes copies out the raw bytes of column colIdx at row, for use when
// migrating a row to a different archetype.
func (a *Archetype) rowBytes(colIdx, row int) []byte {
	size := a.infos[colIdx].size
	if size == 0 {
		return nil
	}
	src := a.columns[colIdx][uintptr(row)*size : uintptr(row+1)*size]
	out := make([]byte, size)
	copy(out, src)
	return out
}

// HasHash reports whether h is a member of this archetype's signature.
func (a *Archetype) HasHash(h TypeHash) bool { return a.signature.Contains(h) }

// EntityAt returns the entity stored at row.
func (a *Archetype) EntityAt(row int) Entity { return a.entities[row] }
