package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ChildOf struct{}
type Likes struct{}

func TestSingleValuedRelationReplacesExistingEdge(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[ChildOf](m.Relations(), false)

	child := m.Create(Position{})
	parentA := m.Create(Position{})
	parentB := m.Create(Position{})

	ecs.Add[ChildOf](m.Relations(), child, parentA)
	ecs.Add[ChildOf](m.Relations(), child, parentB)

	got, ok := ecs.GetParent[ChildOf](m.Relations(), child)
	require.True(t, ok)
	assert.Equal(t, parentB, got)
	assert.False(t, ecs.Has[ChildOf](m.Relations(), child, parentA))
}

func TestMultiValuedRelationAccumulatesEdges(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[Likes](m.Relations(), true)

	a := m.Create(Position{})
	b := m.Create(Position{})
	c := m.Create(Position{})

	ecs.Add[Likes](m.Relations(), a, b)
	ecs.Add[Likes](m.Relations(), a, c)

	targets := ecs.GetParents[Likes](m.Relations(), a)
	assert.ElementsMatch(t, []ecs.Entity{b, c}, targets)
}

func TestRelationGetChildren(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[ChildOf](m.Relations(), false)

	parent := m.Create(Position{})
	childA := m.Create(Position{})
	childB := m.Create(Position{})

	ecs.Add[ChildOf](m.Relations(), childA, parent)
	ecs.Add[ChildOf](m.Relations(), childB, parent)

	kids := ecs.GetChildren[ChildOf](m.Relations(), parent)
	assert.ElementsMatch(t, []ecs.Entity{childA, childB}, kids)
}

func TestDestroyingEntityRemovesItsRelationEdges(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[ChildOf](m.Relations(), false)

	child := m.Create(Position{})
	parent := m.Create(Position{})
	ecs.Add[ChildOf](m.Relations(), child, parent)

	require.NoError(t, m.Destroy(parent))

	assert.Empty(t, ecs.GetChildren[ChildOf](m.Relations(), parent))
	_, ok := ecs.GetParent[ChildOf](m.Relations(), child)
	assert.False(t, ok)
}

func TestRemoveRelationEdge(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	ecs.RegisterRelation[Likes](m.Relations(), true)

	a := m.Create(Position{})
	b := m.Create(Position{})
	ecs.Add[Likes](m.Relations(), a, b)
	require.True(t, ecs.Has[Likes](m.Relations(), a, b))

	ecs.Remove[Likes](m.Relations(), a, b)
	assert.False(t, ecs.Has[Likes](m.Relations(), a, b))
}
