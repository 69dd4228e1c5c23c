package values

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		v, err := ParseNumber("1_000", "")
		require.NoError(t, err)
		assert.Equal(t, KindUint, v.Kind)
		assert.Equal(t, 256, v.Bits)
		assert.Equal(t, "1000", v.Dec())
	})

	t.Run("Exponent", func(t *testing.T) {
		v, err := ParseNumber("5", "18")
		require.NoError(t, err)
		assert.Equal(t, "5000000000000000000", v.Dec())
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := ParseNumber("1", "100")
		assert.Error(t, err)
	})
}

func TestParseHex(t *testing.T) {
	v, err := ParseHex("0x00ff")
	require.NoError(t, err)
	assert.Equal(t, "255", v.Dec())

	_, err = ParseHex("0xzz")
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	v, err := ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, KindAddress, v.Kind)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", v.String())

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
}

func TestConcrete_Cmp(t *testing.T) {
	minusOne := NewInt(256, big.NewInt(-1))
	one := NewUint64(256, 1)

	assert.Equal(t, -1, minusOne.Cmp(one))
	assert.Equal(t, 1, one.Cmp(minusOne))
	assert.Equal(t, "-1", minusOne.Dec())
	assert.Equal(t, 1, NewBool(true).Cmp(NewBool(false)))
	assert.Equal(t, 1, Max(KindUint, 256).Cmp(one))
}

func TestBounds(t *testing.T) {
	assert.Equal(t, "255", Max(KindUint, 8).Dec())
	assert.Equal(t, "0", Min(KindUint, 8).Dec())
	assert.Equal(t, "127", Max(KindInt, 8).Dec())
	assert.Equal(t, "-128", Min(KindInt, 8).Dec())
	assert.Equal(t, "true", Max(KindBool, 0).String())
}

func TestConcrete_MarshalJSON(t *testing.T) {
	b, err := NewUint64(8, 7).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"uint","bits":8,"value":"7"}`, string(b))
}
