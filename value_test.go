package aslan_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	aslan "github.com/jayfoss/ASLAN"
)

func TestValue_Kinds(t *testing.T) {
	require.Equal(t, aslan.KindNull, aslan.NullValue().Kind())
	require.Equal(t, aslan.KindText, aslan.TextValue("x").Kind())
	require.Equal(t, aslan.KindSequence, aslan.NewSequenceValue().Kind())
	require.Equal(t, aslan.KindMap, aslan.NewMapValue().Kind())

	var nilValue *aslan.Value
	require.Equal(t, aslan.KindNull, nilValue.Kind())
}

func TestValue_RawText(t *testing.T) {
	s, ok := aslan.TextValue("hello").RawText()
	require.True(t, ok)
	require.Equal(t, "hello", s)

	_, ok = aslan.NewMapValue().RawText()
	require.False(t, ok)
}

func TestValue_MapGetAndLen(t *testing.T) {
	m := aslan.NewMapValue()
	om, ok := m.Map()
	require.True(t, ok)
	om.Set("a", aslan.TextValue("1"))
	om.Set("b", aslan.TextValue("2"))

	require.Equal(t, 2, m.Len())
	v, ok := m.Get("a")
	require.True(t, ok)
	text, _ := v.RawText()
	require.Equal(t, "1", text)

	_, ok = m.Get("missing")
	require.False(t, ok)

	_, ok = aslan.TextValue("x").Get("a")
	require.False(t, ok)
}

func TestValue_SequenceIndexAndLen(t *testing.T) {
	seq := aslan.NewSequenceValue()
	_, ok := seq.Sequence()
	require.True(t, ok)
	require.Equal(t, 0, seq.Len())

	_, ok = seq.Index(0)
	require.False(t, ok)
}

func TestValue_Coercions(t *testing.T) {
	str, err := aslan.TextValue("42").AsString()
	require.NoError(t, err)
	require.Equal(t, "42", str)

	n, err := aslan.TextValue("42").AsInt()
	require.NoError(t, err)
	require.Equal(t, 42, n)

	f, err := aslan.TextValue("3.5").AsFloat64()
	require.NoError(t, err)
	require.InDelta(t, 3.5, f, 0.0001)

	b, err := aslan.TextValue("true").AsBool()
	require.NoError(t, err)
	require.True(t, b)

	s, err := aslan.NullValue().AsString()
	require.NoError(t, err)
	require.Equal(t, "", s)

	_, err = aslan.NewMapValue().AsString()
	require.Error(t, err)

	_, err = aslan.TextValue("not a number").AsInt()
	require.Error(t, err)
}

func TestValue_MarshalJSON_PreservesKeyOrder(t *testing.T) {
	m := aslan.NewMapValue()
	om, _ := m.Map()
	om.Set("z", aslan.TextValue("1"))
	om.Set("a", aslan.TextValue("2"))
	om.Set("m", aslan.TextValue("3"))

	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"z":"1","a":"2","m":"3"}`, string(b))
}

func TestValue_MarshalJSON_Nested(t *testing.T) {
	root := aslan.NewMapValue()
	om, _ := root.Map()
	seq := aslan.NewSequenceValue()
	om.Set("list", seq)
	om.Set("null", aslan.NullValue())

	b, err := json.Marshal(root)
	require.NoError(t, err)
	require.JSONEq(t, `{"list":[],"null":null}`, string(b))
}

func TestValue_GoString(t *testing.T) {
	v := aslan.TextValue("hi")
	require.Contains(t, v.GoString(), "hi")
}
