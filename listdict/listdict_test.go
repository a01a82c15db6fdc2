package listdict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDict_SetPreservesPosition(t *testing.T) {
	t.Parallel()

	d := New[string, int]()
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("c", 3)
	d.Set("b", 20) // in place

	require.Equal(t, 3, d.Len())
	require.Equal(t, []string{"a", "b", "c"}, d.Keys())
	require.Equal(t, []int{1, 20, 3}, d.Values())

	v, ok := d.Get("b")
	require.True(t, ok)
	require.Equal(t, 20, v)

	_, ok = d.Get("zzz")
	require.False(t, ok)
}

func TestDict_AddAllowsDuplicates(t *testing.T) {
	t.Parallel()

	d := New[string, int]()
	d.Add("k", 1)
	d.Add("k", 2)
	require.Equal(t, 2, d.Len())

	// Lookup returns the first match.
	v, _ := d.Get("k")
	require.Equal(t, 1, v)

	require.True(t, d.Remove("k"))
	v, _ = d.Get("k")
	require.Equal(t, 2, v)
	require.Equal(t, 1, d.Len())
}

func TestDict_Remove(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		remove   string
		wantOK   bool
		wantKeys []string
	}{
		"first":   {remove: "a", wantOK: true, wantKeys: []string{"b", "c"}},
		"middle":  {remove: "b", wantOK: true, wantKeys: []string{"a", "c"}},
		"last":    {remove: "c", wantOK: true, wantKeys: []string{"a", "b"}},
		"missing": {remove: "x", wantOK: false, wantKeys: []string{"a", "b", "c"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := New[string, int]()
			d.Add("a", 1)
			d.Add("b", 2)
			d.Add("c", 3)

			require.Equal(t, tt.wantOK, d.Remove(tt.remove))
			require.Equal(t, tt.wantKeys, d.Keys())
			require.Equal(t, len(tt.wantKeys), d.Len())
		})
	}
}

func TestDict_RemoveOnlyElementThenAppend(t *testing.T) {
	t.Parallel()

	d := New[int, string]()
	d.Add(1, "one")
	require.True(t, d.Remove(1))
	require.Zero(t, d.Len())
	require.Empty(t, d.Keys())

	d.Set(2, "two")
	require.Equal(t, []int{2}, d.Keys())
}

func TestDict_CustomEquality(t *testing.T) {
	t.Parallel()

	d := NewWithEqual[string, int](strings.EqualFold)
	d.Set("Key", 1)
	d.Set("KEY", 2)

	require.Equal(t, 1, d.Len())
	require.True(t, d.ContainsKey("key"))
	require.Equal(t, 0, d.IndexOf("kEy"))
	v, _ := d.Get("key")
	require.Equal(t, 2, v)
}

func TestDict_AllAndClear(t *testing.T) {
	t.Parallel()

	var d Dict[string, int] // zero value is usable
	d.Add("x", 1)
	d.Add("y", 2)
	d.Add("z", 3)

	var keys []string
	for k, v := range d.All() {
		keys = append(keys, k)
		if v == 2 {
			break
		}
	}
	require.Equal(t, []string{"x", "y"}, keys)
	require.Equal(t, 2, d.IndexOf("z"))
	require.Equal(t, -1, d.IndexOf("w"))

	d.Clear()
	require.Zero(t, d.Len())
	require.False(t, d.ContainsKey("x"))
}
