package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ids, err := ParseIDs(JoinIDs([]int64{1, 2, 3}))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("empty", func(t *testing.T) {
		ids, err := ParseIDs(" ")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("spaces are trimmed", func(t *testing.T) {
		ids, err := ParseIDs("4, 5")
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 5}, ids)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseIDs("1,abc")
		var invalid *InvalidIDError
		assert.ErrorAs(t, err, &invalid)
		assert.Equal(t, "abc", invalid.Value)
	})

	t.Run("non positive", func(t *testing.T) {
		_, err := ParseIDs("0")
		assert.Error(t, err)
	})
}

func TestItemOnSale(t *testing.T) {
	assert.True(t, ItemDTO{Status: ItemStatusOnSale}.OnSale())
	assert.False(t, ItemDTO{Status: ItemStatusOffSale}.OnSale())
}
