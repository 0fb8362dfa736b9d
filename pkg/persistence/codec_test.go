package persistence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationDataCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		data := strings.Repeat(`{"location":1,"item":"Hookshot"},`, 200)
		encoded := EncodeGenerationData(data)
		require.NotEmpty(t, encoded)
		assert.NotEqual(t, data, encoded)
		assert.Less(t, len(encoded), len(data))

		decoded, err := DecodeGenerationData(encoded)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("empty passes through", func(t *testing.T) {
		assert.Empty(t, EncodeGenerationData(""))
		decoded, err := DecodeGenerationData("")
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := DecodeGenerationData("not base64!!!")
		assert.Error(t, err)
	})
}
