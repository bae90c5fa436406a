package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddComponentMigratesArchetype covers §8 scenario S1: adding a
// component not already present moves the entity's row into the
// archetype for (old signature) ∪ {T}, preserving every other column.
func TestAddComponentMigratesArchetype(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1, Y: 2})

	require.NoError(t, ecs.AddComponent[Velocity](m, e, Velocity{DX: 5, DY: 6}))

	pos, ok, err := ecs.GetComponent[Position](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(1), pos.X)

	vel, ok, err := ecs.GetComponent[Velocity](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(5), vel.DX)
}

func TestAddComponentAlreadyPresentUpdatesInPlace(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	require.NoError(t, ecs.AddComponent[Position](m, e, Position{X: 9}))

	pos, ok, err := ecs.GetComponent[Position](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(9), pos.X)
}

// TestRemoveComponentMigratesArchetype covers the removal half of S1.
func TestRemoveComponentMigratesArchetype(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1}, Velocity{DX: 2})

	require.NoError(t, ecs.RemoveComponent[Velocity](m, e))

	_, ok, err := ecs.GetComponent[Velocity](m, e)
	require.NoError(t, err)
	assert.False(t, ok)

	pos, ok, err := ecs.GetComponent[Position](m, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(1), pos.X)
}

func TestRemoveComponentAbsentIsNoOp(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	assert.NoError(t, ecs.RemoveComponent[Velocity](m, e))
	assert.True(t, m.IsAlive(e))
}

func TestHasComponent(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	has, err := ecs.HasComponent[Position](m, e)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = ecs.HasComponent[Velocity](m, e)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetAllComponentsReturnsEveryColumn(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1}, Velocity{DX: 2})

	all, err := m.GetAllComponents(e)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestResourceLifecycle(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())

	require.NoError(t, ecs.AddResource[Name](m, Name{Value: "world"}))
	assert.ErrorAs(t, ecs.AddResource[Name](m, Name{Value: "again"}), &ecs.ResourceAlreadyExistsError{})

	res, ok := ecs.GetResource[Name](m)
	require.True(t, ok)
	assert.Equal(t, "world", res.Value)

	res.Value = "mutated"
	res2, _ := ecs.GetResource[Name](m)
	assert.Equal(t, "mutated", res2.Value)

	require.NoError(t, ecs.RemoveResource[Name](m))
	assert.False(t, ecs.HasResource[Name](m))

	var notFound ecs.ResourceNotFoundError
	assert.ErrorAs(t, ecs.RemoveResource[Name](m), &notFound)
}

func TestAddComponentRejectsReservedRelationType(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[ParentOf](m.Relations(), false)
	e := m.Create(Position{X: 1})

	var reserved ecs.ReservedRelationTypeError
	assert.ErrorAs(t, ecs.AddComponent[ParentOf](m, e, ParentOf{}), &reserved)
}

type ParentOf struct{}
