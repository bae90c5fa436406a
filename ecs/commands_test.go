package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommandsFlushAppliesInRecordOrder covers §8 invariant 10: recording
// op1 then op2 and flushing must apply op1 before op2.
func TestCommandsFlushAppliesInRecordOrder(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	cmd := ecs.Commands{}
	ecs.CommandsAddComponent[Velocity](&cmd, e, Velocity{DX: 1})
	ecs.CommandsRemoveComponent[Velocity](&cmd, e)
	ecs.CommandsAddComponent[Velocity](&cmd, e, Velocity{DX: 9})

	require.NoError(t, cmd.Flush(m))

	vel, ok, err := ecs.GetComponent[Velocity](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(9), vel.DX)
}

func TestPendingEntityDereferencedBeforeFlushFails(t *testing.T) {
	var cmd ecs.Commands
	ec := cmd.Create(Position{X: 1})

	_, err := ec.GetEntity()
	var pending ecs.PendingEntityDereferencedError
	assert.ErrorAs(t, err, &pending)
}

func TestPendingEntityResolvesOnceCreateHasFlushed(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	var cmd ecs.Commands
	ec := cmd.Create(Position{X: 5})
	ecs.EntityCommandsAdd[Velocity](ec, Velocity{DX: 2})

	require.NoError(t, cmd.Flush(m))

	e, err := ec.GetEntity()
	require.NoError(t, err)

	pos, ok, err := ecs.GetComponent[Position](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(5), pos.X)

	vel, ok, err := ecs.GetComponent[Velocity](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(2), vel.DX)
}

func TestEntityCommandsDestroyQueuesDestruction(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	var cmd ecs.Commands
	cmd.Entity(e).Destroy()
	require.NoError(t, cmd.Flush(m))

	assert.False(t, m.IsAlive(e))
}

func TestCommandsAddAndRemoveResource(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())

	var cmd ecs.Commands
	ecs.CommandsAddResource[Name](&cmd, Name{Value: "queued"})
	require.NoError(t, cmd.Flush(m))

	res, ok := ecs.GetResource[Name](m)
	require.True(t, ok)
	assert.Equal(t, "queued", res.Value)

	var cmd2 ecs.Commands
	ecs.CommandsRemoveResource[Name](&cmd2)
	require.NoError(t, cmd2.Flush(m))
	assert.False(t, ecs.HasResource[Name](m))
}

func TestCommandsAddAndRemoveRelation(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[ChildOf](m.Relations(), false)
	child := m.Create(Position{})
	parent := m.Create(Position{})

	var cmd ecs.Commands
	ecs.CommandsAddRelation[ChildOf](&cmd, child, parent)
	require.NoError(t, cmd.Flush(m))
	assert.True(t, ecs.Has[ChildOf](m.Relations(), child, parent))

	var cmd2 ecs.Commands
	ecs.CommandsRemoveRelation[ChildOf](&cmd2, child, parent)
	require.NoError(t, cmd2.Flush(m))
	assert.False(t, ecs.Has[ChildOf](m.Relations(), child, parent))
}

func TestFlushResetsBuffer(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	var cmd ecs.Commands
	cmd.Create(Position{X: 1})
	require.NoError(t, cmd.Flush(m))

	require.NoError(t, cmd.Flush(m))
	assert.Equal(t, 1, m.Count())
}

func TestDeferRunsAtFlushTime(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	var cmd ecs.Commands
	ran := false
	cmd.Defer(func() { ran = true })

	assert.False(t, ran)
	require.NoError(t, cmd.Flush(m))
	assert.True(t, ran)
}
