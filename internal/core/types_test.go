// AngelaMos | 2026
// types_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListNullAndEmpty(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var l StringList
	require.NoError(t, l.Scan(nil))
	assert.Equal(t, StringList{}, l)

	require.NoError(t, l.Scan("null"))
	assert.Equal(t, StringList{}, l)

	require.NoError(t, l.Scan([]byte(`["users:read","*"]`)))
	assert.True(t, l.Contains("*"))

	assert.Error(t, l.Scan(42))
}

func TestJSONMapScanAndMerge(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"theme":"dark","lang":"sk"}`)))
	assert.Equal(t, "dark", m["theme"])

	merged := m.Merge(map[string]any{"theme": "light"})
	assert.Equal(t, "light", merged["theme"])
	assert.Equal(t, "sk", merged["lang"])
	assert.Equal(t, "dark", m["theme"], "merge does not mutate the receiver")

	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)
}
