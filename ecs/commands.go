package ecs

// Commands is the deferred-mutation buffer a system records structural
// changes into instead of mutating the Manager directly while iterating
// a Query (spec.md §4.6/§5: "All structural mutations made inside a
// system must go through Commands and be flushed outside iteration").
//
// Grounded on the teacher's ecs/commands.go (Commands struct, per-kind
// slices, Flush against *Storage) — generalized from the teacher's
// per-kind-bucket flush order (all deletes, then all removes, then all
// adds, then all spawns) to a single interleaved ordered log, per spec.md
// §5 ("Command queues flush in append order") and §8 invariant 10
// ("recording op1; op2 and flushing results in op1 applied before op2").
// Each record is a closure over its operands by value, exactly as the
// spec's Design Note describes for a target language with closures.
type Commands struct {
	ops []func(m *Manager) error
}

func newCommands() *Commands { return &Commands{} }

func (c *Commands) record(op func(m *Manager) error) { c.ops = append(c.ops, op) }

// pendingEntity is the not-yet-resolved identity behind an EntityCommands
// handle returned by Commands.Create: it is filled in once the queued
// create operation runs during Flush.
type pendingEntity struct {
	resolved Entity
	ok       bool
}

// EntityCommands wraps either an already-existing Entity or a pending
// handle created via Commands.Create (spec.md §4.6). Every operation
// recorded through it replays, in order, against whichever entity the
// handle names once Flush runs.
type EntityCommands struct {
	cmd     *Commands
	pending *pendingEntity
	fixed   Entity
}

// resolvedEntity returns the concrete entity this handle names. Code
// that dereferences a pending entity before flush must fail loudly
// (spec.md §4.6); GetEntity and every EntityCommandsAdd/Remove closure
// route through this for that reason.
func (ec *EntityCommands) resolvedEntity() (Entity, error) {
	if ec.pending == nil {
		return ec.fixed, nil
	}
	if !ec.pending.ok {
		return Entity{}, PendingEntityDereferencedError{}
	}
	return ec.pending.resolved, nil
}

// GetEntity returns the entity this handle names, or
// PendingEntityDereferencedError if it is still an unresolved pending
// handle.
func (ec *EntityCommands) GetEntity() (Entity, error) { return ec.resolvedEntity() }

// Destroy queues destruction of this handle's entity.
func (ec *EntityCommands) Destroy() {
	ec.cmd.record(func(m *Manager) error {
		e, err := ec.resolvedEntity()
		if err != nil {
			return err
		}
		return m.Destroy(e)
	})
}

// Create queues creating a new entity with components, returning a
// pending EntityCommands handle. Further operations queued through the
// returned handle (Add/Remove/Destroy) are appended after the create
// record, so by the time they run at Flush the handle has resolved.
func (c *Commands) Create(components ...any) *EntityCommands {
	p := &pendingEntity{}
	ec := &EntityCommands{cmd: c, pending: p}
	c.record(func(m *Manager) error {
		p.resolved = m.Create(components...)
		p.ok = true
		return nil
	})
	return ec
}

// Entity wraps an already-existing entity for deferred component ops.
func (c *Commands) Entity(e Entity) *EntityCommands {
	return &EntityCommands{cmd: c, fixed: e}
}

// DestroyEntity queues e's destruction.
func (c *Commands) DestroyEntity(e Entity) {
	c.record(func(m *Manager) error { return m.Destroy(e) })
}

// EntityCommandsAdd queues adding a T component to ec's entity. A
// package-level generic function, since Go methods cannot introduce
// their own type parameters.
func EntityCommandsAdd[T any](ec *EntityCommands, v T) {
	ec.cmd.record(func(m *Manager) error {
		e, err := ec.resolvedEntity()
		if err != nil {
			return err
		}
		return AddComponent[T](m, e, v)
	})
}

// EntityCommandsRemove queues removing a T component from ec's entity.
func EntityCommandsRemove[T any](ec *EntityCommands) {
	ec.cmd.record(func(m *Manager) error {
		e, err := ec.resolvedEntity()
		if err != nil {
			return err
		}
		return RemoveComponent[T](m, e)
	})
}

// CommandsAddComponent queues adding v to e directly (no EntityCommands
// handle needed when e is already known).
func CommandsAddComponent[T any](c *Commands, e Entity, v T) {
	c.record(func(m *Manager) error { return AddComponent[T](m, e, v) })
}

// CommandsRemoveComponent queues removing T from e.
func CommandsRemoveComponent[T any](c *Commands, e Entity) {
	c.record(func(m *Manager) error { return RemoveComponent[T](m, e) })
}

// CommandsAddResource queues installing a T resource singleton.
func CommandsAddResource[T any](c *Commands, v T) {
	c.record(func(m *Manager) error { return AddResource[T](m, v) })
}

// CommandsRemoveResource queues removing the T resource singleton.
func CommandsRemoveResource[T any](c *Commands) {
	c.record(func(m *Manager) error { return RemoveResource[T](m) })
}

// CommandsAddRelation queues a K-kind relation edge from -> to.
func CommandsAddRelation[K any](c *Commands, from, to Entity) {
	c.record(func(m *Manager) error {
		Add[K](m.relations, from, to)
		return nil
	})
}

// CommandsRemoveRelation queues removing a K-kind relation edge.
func CommandsRemoveRelation[K any](c *Commands, from, to Entity) {
	c.record(func(m *Manager) error {
		Remove[K](m.relations, from, to)
		return nil
	})
}

// Defer queues an arbitrary function to run at flush time, in its
// recorded position alongside every other queued operation.
func (c *Commands) Defer(fn func()) {
	c.record(func(*Manager) error {
		fn()
		return nil
	})
}

// Flush applies every queued operation against m in record order,
// resetting the buffer. Application is all-or-nothing at the per-record
// level: records are applied until one fails, and the first error is
// returned (spec.md §7).
func (c *Commands) Flush(m *Manager) error {
	ops := c.ops
	c.ops = nil
	for _, op := range ops {
		if err := op(m); err != nil {
			return err
		}
	}
	return nil
}
