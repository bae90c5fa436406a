package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type PosVel struct {
	Pos *Position
	Vel *Velocity
}

type PosOnly struct {
	E   ecs.Entity
	Pos *Position
}

type PosOptionalVel struct {
	Pos *Position
	Vel *Velocity `ecs:"optional"`
}

type WithVel struct {
	Vel Velocity
}

func TestQueryMatchesOnlyArchetypesWithAllRequired(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	both := m.Create(Position{X: 1}, Velocity{DX: 1})
	m.Create(Position{X: 2})

	q := ecs.NewQuery[PosVel, ecs.NoExclude](m)
	got := q.Collect()

	require.Len(t, got, 1)
	assert.Equal(t, float32(1), got[0].Pos.X)
	assert.Equal(t, float32(1), got[0].Vel.DX)
	_ = both
}

// TestQueryExcludeFiltersOutMatchingRows covers §8 scenario S3.
func TestQueryExcludeFiltersOutMatchingRows(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	m.Create(Position{X: 1}, Velocity{DX: 1})
	onlyPos := m.Create(Position{X: 2})

	q := ecs.NewQuery[PosOnly, WithVel](m)
	got := q.Collect()

	require.Len(t, got, 1)
	assert.Equal(t, onlyPos, got[0].E)
}

func TestQueryOptionalFieldIsNilWhenAbsent(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	m.Create(Position{X: 1}, Velocity{DX: 9})
	m.Create(Position{X: 2})

	q := ecs.NewQuery[PosOptionalVel, ecs.NoExclude](m)

	var withVel, withoutVel int
	q.Each(func(item *PosOptionalVel) bool {
		if item.Vel != nil {
			withVel++
		} else {
			withoutVel++
		}
		return true
	})
	assert.Equal(t, 1, withVel)
	assert.Equal(t, 1, withoutVel)
}

func TestQueryEntityFieldIsPopulated(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	e := m.Create(Position{X: 1})

	q := ecs.NewQuery[PosOnly, ecs.NoExclude](m)
	got := q.Collect()

	require.Len(t, got, 1)
	assert.Equal(t, e, got[0].E)
}

func TestQueryCountMatchesCollectLength(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	m.Create(Position{X: 1})
	m.Create(Position{X: 2})
	m.Create(Position{X: 3}, Velocity{DX: 1})

	q := ecs.NewQuery[PosOnly, ecs.NoExclude](m)
	assert.Equal(t, 3, q.Count())
	assert.Len(t, q.Collect(), 3)
}

func TestQueryEachStopsWhenYieldReturnsFalse(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	m.Create(Position{X: 1})
	m.Create(Position{X: 2})
	m.Create(Position{X: 3})

	q := ecs.NewQuery[PosOnly, ecs.NoExclude](m)
	seen := 0
	q.Each(func(item *PosOnly) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}
