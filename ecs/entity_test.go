package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateAssignsDistinctIDs(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())

	a := m.Create(Position{X: 1})
	b := m.Create(Position{X: 2})

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, m.IsAlive(a))
	assert.True(t, m.IsAlive(b))
}

func TestEntityIsZero(t *testing.T) {
	var e ecs.Entity
	assert.True(t, e.IsZero())

	e.ID = 1
	assert.False(t, e.IsZero())
}

func TestDestroyedEntityIsNotAlive(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	require.NoError(t, m.Destroy(e))
	assert.False(t, m.IsAlive(e))

	_, _, err := ecs.GetComponent[Position](m, e)
	assert.Error(t, err)
}

func TestDestroySwapMovesLastRowIntoGap(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	a := m.Create(Position{X: 1}, Velocity{DX: 1})
	b := m.Create(Position{X: 2}, Velocity{DX: 2})
	c := m.Create(Position{X: 3}, Velocity{DX: 3})

	require.NoError(t, m.Destroy(a))

	assert.False(t, m.IsAlive(a))
	assert.True(t, m.IsAlive(b))
	assert.True(t, m.IsAlive(c))

	pos, ok, err := ecs.GetComponent[Position](m, c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float32(3), pos.X)
}
