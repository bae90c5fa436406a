package ecs_test

import (
	"testing"

	"github.com/plus3/loom/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type DamageEvent struct {
	Amount int
}

func TestEventReaderSeesOnlyEventsPostedAfterItIsCreated(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	s := ecs.NewScheduler(m)

	writer := &ecs.EventWriter[DamageEvent]{}
	writer.Init(s)
	writer.Write(DamageEvent{Amount: 1})

	reader := &ecs.EventReader[DamageEvent]{}
	reader.Init(s)
	writer.Write(DamageEvent{Amount: 2})

	got := reader.Read()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Amount)
}

func TestEventReaderDrainsOnlyOnce(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	s := ecs.NewScheduler(m)

	writer := &ecs.EventWriter[DamageEvent]{}
	writer.Init(s)
	reader := &ecs.EventReader[DamageEvent]{}
	reader.Init(s)

	writer.Write(DamageEvent{Amount: 5})
	first := reader.Read()
	second := reader.Read()

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestIndependentReadersDoNotShareCursors(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	s := ecs.NewScheduler(m)

	writer := &ecs.EventWriter[DamageEvent]{}
	writer.Init(s)
	writer.Write(DamageEvent{Amount: 1})

	readerA := &ecs.EventReader[DamageEvent]{}
	readerA.Init(s)
	readerB := &ecs.EventReader[DamageEvent]{}
	readerB.Init(s)

	assert.Len(t, readerA.Read(), 0)
	writer.Write(DamageEvent{Amount: 2})

	assert.Len(t, readerA.Read(), 1)
	assert.Len(t, readerB.Read(), 1)
}

// TestLastStageCleanupDrainsEventStore exercises the scheduler's
// auto-appended cleanup system: RegisterEventWithCleanupAtStage wires an
// EventStore[T]'s cleanup() into the given stage, so running that stage
// drops every event, handled or not (spec.md §3).
func TestLastStageCleanupDrainsEventStore(t *testing.T) {
	m := ecs.NewManager(newTestRegistry())
	s := ecs.NewScheduler(m)
	ecs.RegisterEvent[DamageEvent](s)

	var writer ecs.EventWriter[DamageEvent]
	var reader ecs.EventReader[DamageEvent]
	writer.Init(s)
	reader.Init(s)

	writer.Write(DamageEvent{Amount: 1})
	writer.Write(DamageEvent{Amount: 2})
	_ = reader.Read()
	writer.Write(DamageEvent{Amount: 3})

	require.NoError(t, s.RunStage(ecs.StageLast))

	assert.Empty(t, reader.Read())
}
