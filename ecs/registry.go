package ecs

import (
	"hash/fnv"
	"reflect"
	"sort"

	"github.com/TheBitDrifter/mask"
)

// TypeHash is the stable 64-bit identifier of a registered component type,
// computed once at registration time from the type's name. Per spec.md's
// Non-goals ("deterministic cross-platform hashing of user types") this
// hash is stable only within a single registry instance/process, never
// promised across processes or Go versions.
type TypeHash uint64

// typeInfo is everything the storage layer needs to know about a
// registered component type.
type typeInfo struct {
	hash TypeHash
	typ  reflect.Type
	size uintptr
	bit  uint32
}

// ComponentRegistry assigns every component type a stable TypeHash and a
// mask bit index, and remembers its size for column allocation. Grounded
// on the teacher's ecs/generic_component_storage.go ComponentRegistry
// (RegisterComponent[T]/getFactory), generalized to carry raw byte-column
// sizing (spec.md §3) instead of a typed factory, and to additionally hand
// out a mask.Mask256 bit per type (warehouse/storage.go RowIndexFor).
type ComponentRegistry struct {
	byType map[reflect.Type]*typeInfo
	byHash map[TypeHash]*typeInfo
	nextBit uint32
}

// NewComponentRegistry creates an empty registry. Each Manager owns one.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]*typeInfo),
		byHash: make(map[TypeHash]*typeInfo),
	}
}

// RegisterComponent registers T with the registry. Idempotent: calling it
// twice for the same T is a no-op. Must be called before any entity
// carrying T is created (spec.md §9, "expose component type ids via a
// registration call at program start").
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	if _, ok := r.byType[t]; ok {
		return
	}
	h := hashType(t)
	info := &typeInfo{
		hash: h,
		typ:  t,
		size: t.Size(),
		bit:  r.nextBit,
	}
	r.nextBit++
	r.byType[t] = info
	r.byHash[h] = info
}

func hashType(t reflect.Type) TypeHash {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.PkgPath() + "." + t.Name()))
	return TypeHash(h.Sum64())
}

func (r *ComponentRegistry) infoFor(t reflect.Type) (*typeInfo, bool) {
	info, ok := r.byType[t]
	return info, ok
}

func (r *ComponentRegistry) infoForHash(h TypeHash) (*typeInfo, bool) {
	info, ok := r.byHash[h]
	return info, ok
}

// mustInfoFor panics (via panicTrace with a ComponentNotRegisteredError)
// when t was never registered — a programming error per spec.md §9.
func (r *ComponentRegistry) mustInfoFor(t reflect.Type) *typeInfo {
	info, ok := r.infoFor(t)
	if !ok {
		panicTrace(ComponentNotRegisteredError{Type: t})
	}
	return info
}

// maskFor computes the mask.Mask256 matching a sorted signature, used as
// the fast-path filter in the query engine (DESIGN.md, Query engine).
func (r *ComponentRegistry) maskFor(sig Signature) mask.Mask256 {
	var m mask.Mask256
	for _, h := range sig.types {
		if info, ok := r.infoForHash(h); ok {
			m.Mark(info.bit)
		}
	}
	return m
}

// Signature is the sorted, deduplicated set of component type hashes that
// uniquely identifies an archetype (spec.md §3).
type Signature struct {
	types []TypeHash
}

// BuildSignature sorts and deduplicates hashes into a Signature.
func BuildSignature(hashes []TypeHash) Signature {
	cp := append([]TypeHash(nil), hashes...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	var last TypeHash
	first := true
	for _, h := range cp {
		if first || h != last {
			out = append(out, h)
			last = h
			first = false
		}
	}
	return Signature{types: out}
}

// Key returns a value suitable for use as a map key identifying this
// signature (order-sensitive hash of the concatenated hash sequence).
func (s Signature) Key() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, t := range s.types {
		for i := 0; i < 8; i++ {
			buf[i] = byte(t >> (8 * i))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// Equal reports elementwise equality between two signatures.
func (s Signature) Equal(o Signature) bool {
	if len(s.types) != len(o.types) {
		return false
	}
	for i := range s.types {
		if s.types[i] != o.types[i] {
			return false
		}
	}
	return true
}

// Contains reports whether h is a member of the signature.
func (s Signature) Contains(h TypeHash) bool {
	for _, t := range s.types {
		if t == h {
			return true
		}
	}
	return false
}

// Len returns the number of distinct component types in the signature.
func (s Signature) Len() int { return len(s.types) }
