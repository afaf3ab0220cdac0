package objgraph

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Object {
	inner := NewObject()
	inner.Set("value", String("42"))
	inner.Set("dataType", String("integer"))

	root := NewObject()
	root.Set("zeta", String("last-alpha-first-inserted"))
	root.Set("alpha", inner)
	root.Set("list", Array{String("a"), String("b")})
	return root
}

func TestObject_OrderAndOverwrite(t *testing.T) {
	o := NewObject()
	o.Set("b", String("1"))
	o.Set("a", String("2"))
	o.Set("b", String("3"))

	assert.Equal(t, []string{"b", "a"}, o.Keys())
	s, ok := o.GetString("b")
	require.True(t, ok)
	assert.Equal(t, "3", s)

	o.Delete("b")
	assert.Equal(t, 1, o.Len())

	_, ok = o.GetObject("a")
	assert.False(t, ok)
}

func TestMarshalJSON_PreservesOrder(t *testing.T) {
	b, err := json.Marshal(sample())
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":"last-alpha-first-inserted","alpha":{"value":"42","dataType":"integer"},"list":["a","b"]}`,
		string(b))
}

func TestCyclicGraph(t *testing.T) {
	o := NewObject()
	o.Set("name", String("S"))
	o.Set("S", o)

	_, err := json.Marshal(o)
	require.ErrorIs(t, err, ErrCyclic)

	_, err = ToNative(o)
	require.ErrorIs(t, err, ErrCyclic)

	_, err = MarshalCBOR(o)
	require.ErrorIs(t, err, ErrCyclic)

	c := o.Clone()
	self, ok := c.GetObject("S")
	require.True(t, ok)
	assert.Same(t, c, self)
	assert.True(t, Equal(o, c))
}

func TestSharedObjectIsNotACycle(t *testing.T) {
	shared := NewObject()
	shared.Set("k", String("v"))
	o := NewObject()
	o.Set("a", shared)
	o.Set("b", shared)

	n, err := ToNative(o)
	require.NoError(t, err)
	want := map[string]any{
		"a": map[string]any{"k": "v"},
		"b": map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Errorf("ToNative() mismatch (-want +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(sample(), sample()))

	reordered := NewObject()
	reordered.Set("a", String("1"))
	reordered.Set("b", String("2"))
	other := NewObject()
	other.Set("b", String("2"))
	other.Set("a", String("1"))
	assert.False(t, Equal(reordered, other), "property order is part of equality")

	assert.False(t, Equal(String("a"), Array{String("a")}))
	assert.False(t, Equal(Array{String("a")}, Array{String("a"), String("b")}))
}

func TestClone_IsIndependent(t *testing.T) {
	orig := sample()
	c := orig.Clone()
	inner, _ := c.GetObject("alpha")
	inner.Set("value", String("changed"))

	origInner, _ := orig.GetObject("alpha")
	v, _ := origInner.GetString("value")
	assert.Equal(t, "42", v)
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(map[string]any{
		"b":     3,
		"a":     true,
		"f":     1.5,
		"items": []any{"x", nil, int64(7)},
		"skip":  nil,
		"typed": map[string]string{"k": "v"},
	})
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "f", "items", "typed"}, obj.Keys())

	items, _ := obj.Get("items")
	assert.Equal(t, Array{String("x"), String("7")}, items)

	f, _ := obj.GetString("f")
	assert.Equal(t, "1.5", f)

	_, err = FromNative(struct{}{})
	require.Error(t, err)
}

func TestCBOR_BinaryRoundTrip(t *testing.T) {
	o := NewObject()
	o.Set("value", String("ab\x00\xffz"))
	o.Set("text", String("plain"))

	data, err := MarshalCBOR(o)
	require.NoError(t, err)

	back, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	obj := back.(*Object)

	v, _ := obj.GetString("value")
	assert.Equal(t, "ab\x00\xffz", v)
	txt, _ := obj.GetString("text")
	assert.Equal(t, "plain", txt)
}

func TestMarshalJSON_InvalidUTF8IsReplaced(t *testing.T) {
	o := NewObject()
	o.Set("value", String("a\xffb"))

	b, err := json.Marshal(o)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "a\uFFFDb", decoded["value"])

	data, err := MarshalCBOR(o)
	require.NoError(t, err)
	back, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	v, _ := back.(*Object).GetString("value")
	assert.Equal(t, "a\xffb", v, "cbor keeps the raw bytes")
}

func TestQuery(t *testing.T) {
	res, err := Query(sample(), "$.alpha.value")
	require.NoError(t, err)
	assert.Equal(t, []any{"42"}, res)

	res, err = Query(sample(), "$.list[*]")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, res)

	_, err = Query(sample(), "$.list[?(@ ==")
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	result := NewObject()
	result.Set("value", String(""))
	result.Set("mimeType", String("text/plain"))
	dst := NewObject()
	dst.Set("Result", result)
	dst.Set("Other", String("kept"))

	newResult := NewObject()
	newResult.Set("value", String("hello"))
	src := NewObject()
	src.Set("Result", newResult)
	src.Set("Extra", Array{String("x")})

	Merge(dst, src)

	assert.Equal(t, []string{"Result", "Other", "Extra"}, dst.Keys())
	got, ok := dst.GetObject("Result")
	require.True(t, ok)
	assert.Same(t, result, got)
	v, _ := got.GetString("value")
	assert.Equal(t, "hello", v)
	m, _ := got.GetString("mimeType")
	assert.Equal(t, "text/plain", m)
}

func TestMerge_CyclicSource(t *testing.T) {
	src := NewObject()
	src.Set("self", src)
	dst := NewObject()
	dst.Set("self", NewObject())

	assert.NotPanics(t, func() { Merge(dst, src) })
	Merge(src, src)
	assert.Equal(t, 1, src.Len())
}
