package aslan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	aslan "github.com/jayfoss/ASLAN"
)

func TestEventKind_String(t *testing.T) {
	require.Equal(t, "content", aslan.EventContent.String())
	require.Equal(t, "end_data", aslan.EventEndData.String())
	require.Equal(t, "end", aslan.EventEnd.String())
	require.Equal(t, "unknown", aslan.EventKind(99).String())
}

func TestEvents_PathAndValueOnContent(t *testing.T) {
	p := aslan.New()
	var paths [][]aslan.PathSegment
	var values []string

	p.AddEventListener(func(ev aslan.Event) {
		if ev.Kind != aslan.EventContent {
			return
		}
		paths = append(paths, ev.Path)
		s, _ := ev.Value.RawText()
		values = append(values, s)
	})

	p.Parse([]byte("[asland_a][aslano][asland_b]hi[aslano]"))

	require.NotEmpty(t, values)
	require.Contains(t, values, "hi")

	var sawNestedPath bool
	for _, path := range paths {
		if len(path) == 2 && path[0].Key == "a" && path[1].Key == "b" {
			sawNestedPath = true
		}
	}
	require.True(t, sawNestedPath, "expected an event path [a, b] for the nested key, got %+v", paths)
}

func TestEvents_MultipleListenersAllReceive(t *testing.T) {
	p := aslan.New()
	var countA, countB int
	p.AddEventListener(func(ev aslan.Event) { countA++ })
	p.AddEventListener(func(ev aslan.Event) { countB++ })

	p.Parse([]byte("[asland_a]x"))

	require.Positive(t, countA)
	require.Equal(t, countA, countB)
}

func TestEvents_RemoveListenerStopsDelivery(t *testing.T) {
	p := aslan.New()
	var count int
	id := p.AddEventListener(func(ev aslan.Event) { count++ })
	p.RemoveEventListener(id)

	p.Parse([]byte("[asland_a]x"))

	require.Zero(t, count)
}

func TestEvents_AppendedFlag(t *testing.T) {
	p := aslan.New()
	var appendedFlags []bool
	p.AddEventListener(func(ev aslan.Event) {
		if ev.Kind == aslan.EventContent {
			appendedFlags = append(appendedFlags, ev.Appended)
		}
	})

	p.Parse([]byte("[asland_a]one[asland_a]two"))

	require.Len(t, appendedFlags, 2)
	require.False(t, appendedFlags[0])
	require.True(t, appendedFlags[1])
}
