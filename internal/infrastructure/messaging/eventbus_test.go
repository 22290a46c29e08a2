package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/learntrack/internal/domain/shared"
)

func lessonEvent() shared.Event {
	return shared.NewLessonCompletedEvent(100, 10, 1, 8, 25, 11.11, false)
}

func TestInMemoryEventBus_SyncDeliversByType(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	var lessons, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(e shared.Event) error {
		lessons = append(lessons, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(lessonEvent()))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent(1, 1, 2, 105, 200)))

	assert.Equal(t, []shared.EventType{shared.EventLessonCompleted}, lessons)
	assert.Equal(t, []shared.EventType{shared.EventLessonCompleted, shared.EventLevelUp}, all)
}

func TestInMemoryEventBus_HandlerFailuresStayInside(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	var after int
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error { panic("bad handler") }))
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		after++
		return nil
	}))

	assert.NoError(t, bus.Publish(lessonEvent()))
	assert.Equal(t, 1, after)
}

func TestInMemoryEventBus_AsyncCloseWaitsForHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var (
		count atomic.Int32
		wg    sync.WaitGroup
	)
	wg.Add(10)
	require.NoError(t, bus.Subscribe(shared.EventLessonCompleted, func(shared.Event) error {
		defer wg.Done()
		count.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(lessonEvent()))
	}
	require.NoError(t, bus.Close())
	wg.Wait()

	assert.Equal(t, int32(10), count.Load())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(lessonEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, NewInMemoryEventBus(InMemoryEventBusConfig{}).Publish(nil), ErrNilEvent)
	assert.ErrorIs(t, NewInMemoryEventBus(InMemoryEventBusConfig{}).Subscribe(shared.EventLevelUp, nil), ErrNilHandler)
}
