package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
)

func TestRegisterComponentIsIdempotent(t *testing.T) {
	r := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](r)
	ecs.RegisterComponent[Position](r)
	ecs.RegisterComponent[Velocity](r)

	m := ecs.NewManager(r)
	e := m.Create(Position{X: 1}, Velocity{DX: 2})
	assert.True(t, m.IsAlive(e))
}

func TestBuildSignatureSortsAndDedups(t *testing.T) {
	sig := ecs.BuildSignature([]ecs.TypeHash{3, 1, 2, 1})
	assert.Equal(t, 3, sig.Len())
	assert.True(t, sig.Contains(1))
	assert.True(t, sig.Contains(2))
	assert.True(t, sig.Contains(3))
}

func TestSignatureEqualIgnoresInputOrder(t *testing.T) {
	a := ecs.BuildSignature([]ecs.TypeHash{1, 2, 3})
	b := ecs.BuildSignature([]ecs.TypeHash{3, 2, 1})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestSignatureNotEqualOnDifferentMembers(t *testing.T) {
	a := ecs.BuildSignature([]ecs.TypeHash{1, 2})
	b := ecs.BuildSignature([]ecs.TypeHash{1, 3})
	assert.False(t, a.Equal(b))
}
