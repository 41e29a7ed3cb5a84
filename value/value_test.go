package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elemaudio/audiograph/value"
)

func TestValueNarrowing(t *testing.T) {
	n := value.Number(3.5)
	require.Equal(t, value.KindNumber, n.Kind())
	got, ok := n.AsNumber()
	require.True(t, ok)
	require.Equal(t, 3.5, got)

	_, ok = n.AsString()
	require.False(t, ok)
}

func TestValueZeroIsUndefined(t *testing.T) {
	var v value.Value
	require.True(t, v.IsUndefined())
	require.Equal(t, value.KindUndefined, v.Kind())
}

func TestFromJSON(t *testing.T) {
	v, err := value.FromJSON(map[string]any{
		"gain": 0.5,
		"tags": []any{"a", "b"},
	})
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)

	gain, ok := obj["gain"].AsNumber()
	require.True(t, ok)
	require.Equal(t, 0.5, gain)

	tags, ok := obj["tags"].AsArray()
	require.True(t, ok)
	require.Len(t, tags, 2)
}
