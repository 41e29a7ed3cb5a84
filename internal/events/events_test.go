package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/internal/alloc"
	"github.com/elemaudio/audiograph/internal/events"
	"github.com/elemaudio/audiograph/internal/render"
	"github.com/elemaudio/audiograph/internal/resource"
	"github.com/elemaudio/audiograph/internal/schedule"
	"github.com/elemaudio/audiograph/internal/store"
	"github.com/elemaudio/audiograph/node"
	"github.com/elemaudio/audiograph/value"
)

func TestPumpDrainsMeterEventsOncePerBlock(t *testing.T) {
	registry := node.NewRegistry()
	node.RegisterBuiltins(registry)
	s := store.New(registry, 44100, 512)

	require.Nil(t, s.CreateNode(1, "const"))
	require.Nil(t, s.CreateNode(2, "meter"))
	require.Nil(t, s.CreateNode(3, "root"))
	require.Nil(t, s.SetProperty(1, "value", value.Number(1), resource.New()))
	require.Nil(t, s.SetProperty(2, "name", value.String("m1"), resource.New()))
	require.Nil(t, s.AppendChild(2, 1, 0))
	require.Nil(t, s.AppendChild(3, 2, 0))
	require.Nil(t, s.SetProperty(3, "outputChannel", value.Number(0), resource.New()))
	require.Nil(t, s.ActivateRoots([]node.ID{3}))

	bufs := alloc.New(512)
	sched := schedule.Compile(s, bufs, 512)

	r := render.New(1, 512, 44100)
	require.NoError(t, r.PushSchedule(sched))
	out := [][]float32{make([]float32, 512)}

	pump := events.NewPump()
	count := 0
	for i := 0; i < 4; i++ {
		r.Process(out, 512)
		pump.Drain(sched, func(name string, _ value.Value) {
			if name == "meter" {
				count++
			}
		})
	}
	require.Equal(t, 4, count)
}

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := events.NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(events.Event{Name: "meter", Payload: value.Number(1)})

	va, err := a.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "meter", va.Name)

	vb, err := b.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "meter", vb.Name)
}
