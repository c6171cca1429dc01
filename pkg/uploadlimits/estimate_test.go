package uploadlimits

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateBase64Bytes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 1000, 1_000_000} {
		raw := make([]byte, n)
		encoded := base64.StdEncoding.EncodeToString(raw)

		assert.Equal(t, int64(n), EstimateBase64Bytes(encoded), "raw base64 of %d bytes", n)
		assert.Equal(t, int64(n), EstimateBase64Bytes("data:image/png;base64,"+encoded), "data URL of %d bytes", n)
	}

	t.Run("empty payload after prefix", func(t *testing.T) {
		assert.Equal(t, int64(0), EstimateBase64Bytes("data:image/png;base64,"))
		assert.Equal(t, int64(0), EstimateBase64Bytes(""))
	})

	t.Run("malformed input degrades gracefully", func(t *testing.T) {
		assert.Equal(t, int64(0), EstimateBase64Bytes("=="))
		assert.Equal(t, int64(0), EstimateBase64Bytes("a"))
		assert.Equal(t, int64(3), EstimateBase64Bytes("  abcd  "))
		assert.Equal(t, int64(6), EstimateBase64Bytes("x,abcd,efgh"))
	})
}

func TestCheckEncoded(t *testing.T) {
	limits := Limits{MaxFiles: 10, MaxFileBytes: 1000, MaxTotalBytes: 1500}
	encode := func(n int) string {
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", n)))
	}

	t.Run("within budget", func(t *testing.T) {
		err := limits.CheckEncoded([]EncodedFile{{"a.jpg", encode(700)}, {"b.jpg", encode(700)}}, "hint")
		require.NoError(t, err)
	})

	t.Run("single file over the per-file cap", func(t *testing.T) {
		err := limits.CheckEncoded([]EncodedFile{{"big.jpg", encode(1001)}}, "hint")

		var tooLarge *PayloadTooLargeError
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, "big.jpg", tooLarge.Filename)
		assert.Equal(t, "hint", tooLarge.Hint)
		assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	})

	t.Run("aggregate over the total cap", func(t *testing.T) {
		err := limits.CheckEncoded([]EncodedFile{{"a.jpg", encode(900)}, {"b.jpg", encode(900)}}, "hint")

		var tooLarge *PayloadTooLargeError
		require.ErrorAs(t, err, &tooLarge)
		assert.Empty(t, tooLarge.Filename)
		assert.Equal(t, int64(1800), tooLarge.Bytes)
	})
}
