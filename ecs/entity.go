package ecs

import "fmt"

// Entity is an opaque handle naming a live object in the world. Equality is
// by both fields: two handles with the same id but different generation
// refer to different (never simultaneously live) objects.
type Entity struct {
	ID         uint32
	Generation uint32
}

// String renders an entity for diagnostics and panic/error messages.
func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.ID, e.Generation)
}

// IsZero reports whether e is the zero-value entity. The allocator never
// issues id 0, so the zero value names no entity.
func (e Entity) IsZero() bool {
	return e.ID == 0 && e.Generation == 0
}

// entityAllocator issues dense (id, generation) handles. The current
// policy never recycles an id: next climbs monotonically. generation is
// carried in the data model and bumped on destroy, but since an id is
// never reissued, every handle the allocator issues has generation 0.
// See DESIGN.md, Open Question 1.
type entityAllocator struct {
	next        uint32
	generations []uint32
}

func newEntityAllocator() *entityAllocator {
	// id 0 is reserved so that the zero-value Entity names no entity.
	return &entityAllocator{next: 1, generations: []uint32{0}}
}

func (a *entityAllocator) alloc() Entity {
	id := a.next
	a.next++
	a.generations = append(a.generations, 0)
	return Entity{ID: id, Generation: a.generations[id]}
}

// generationOf returns the current generation recorded for id, or false if
// id was never allocated.
func (a *entityAllocator) generationOf(id uint32) (uint32, bool) {
	if id == 0 || int(id) >= len(a.generations) {
		return 0, false
	}
	return a.generations[id], true
}

// bump increments the generation for id, which would be exercised the day
// id recycling is turned on; currently only reachable from destroy() for
// bookkeeping symmetry with spec.md's data model.
func (a *entityAllocator) bump(id uint32) {
	if int(id) < len(a.generations) {
		a.generations[id]++
	}
}
