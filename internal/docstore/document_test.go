package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_String(t *testing.T) {
	d := Document{"s": "v", "n": int64(1)}

	got, err := d.String("s")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = d.String("missing")
	assert.True(t, IsDecode(err))

	_, err = d.String("n")
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeDecode, se.Code)
	assert.Equal(t, "n", se.Field)

	opt, err := d.OptString("missing")
	require.NoError(t, err)
	assert.Equal(t, "", opt)
}

func TestDocument_Int(t *testing.T) {
	d := Document{"a": 3, "b": int64(4), "c": "x"}

	n, err := d.Int("a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = d.Int("b")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = d.Int("c")
	assert.True(t, IsDecode(err))

	_, ok, err := d.OptInt("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocument_Strings(t *testing.T) {
	d := Document{"typed": []string{"a"}, "any": []any{"b", "c"}, "bad": []any{"d", int64(1)}}

	got, err := d.Strings("typed")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, err = d.Strings("any")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)

	_, err = d.Strings("bad")
	assert.True(t, IsDecode(err))

	got, err = d.Strings("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocument_ObjectsAndIntMap(t *testing.T) {
	d := Document{
		"objs":   []any{map[string]any{"id": "x"}},
		"counts": map[string]any{"q1": int64(2)},
		"bad":    map[string]any{"q1": "two"},
	}

	objs, err := d.Objects("objs")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "x", objs[0]["id"])

	counts, err := d.IntMap("counts")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"q1": 2}, counts)

	_, err = d.IntMap("bad")
	assert.True(t, IsDecode(err))

	empty, err := d.IntMap("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocument_Merge(t *testing.T) {
	d := Document{"a": 1, "b": 2}
	m := d.Merge(Document{"b": 3, "c": 4})

	assert.Equal(t, Document{"a": 1, "b": 3, "c": 4}, m)
	assert.Equal(t, Document{"a": 1, "b": 2}, d, "merge must not modify the receiver")
}

func TestErrors_Classification(t *testing.T) {
	nf := NotFound("fetch", "c", "x")
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsRetryable(nf))

	dec := Decode("f", nil)
	assert.True(t, IsDecode(dec))
	assert.False(t, IsRetryable(dec))

	tr := Transport("set", "c", "x", assert.AnError)
	assert.True(t, IsTransport(tr))
	assert.True(t, IsRetryable(tr))
	assert.ErrorIs(t, tr, assert.AnError)
	assert.Contains(t, tr.Error(), "c/x")

	assert.False(t, IsRetryable(nil))
}
