package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDummyImageData(t *testing.T, format string, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	default:
		t.Fatalf("unsupported format %s", format)
	}
	return buf.Bytes()
}

func TestExtractMetadata(t *testing.T) {
	p := NewImageProcessor(0)

	for _, format := range []string{"png", "jpeg"} {
		t.Run(format, func(t *testing.T) {
			data := createDummyImageData(t, format, 40, 25)

			metrics, err := p.ExtractMetadata(data)
			require.NoError(t, err)
			assert.Equal(t, 40, metrics.Width)
			assert.Equal(t, 25, metrics.Height)
			assert.Equal(t, int64(len(data)), metrics.Bytes)
		})
	}

	t.Run("not an image", func(t *testing.T) {
		_, err := p.ExtractMetadata([]byte("definitely not an image"))

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := p.ExtractMetadata(nil)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})
}

func TestPrepareForModel(t *testing.T) {
	t.Run("small images pass through", func(t *testing.T) {
		p := NewImageProcessor(100)
		data := createDummyImageData(t, "png", 50, 20)

		out, ct, err := p.PrepareForModel(data, "image/png")
		require.NoError(t, err)
		assert.Equal(t, data, out)
		assert.Equal(t, "image/png", ct)
	})

	t.Run("large images are downscaled to JPEG", func(t *testing.T) {
		p := NewImageProcessor(32)
		data := createDummyImageData(t, "png", 128, 64)

		out, ct, err := p.PrepareForModel(data, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", ct)

		metrics, err := p.ExtractMetadata(out)
		require.NoError(t, err)
		assert.Equal(t, 32, metrics.Width)
		assert.Equal(t, 16, metrics.Height)
	})

	t.Run("transparency is flattened onto white", func(t *testing.T) {
		p := NewImageProcessor(16)
		clear := image.NewNRGBA(image.Rect(0, 0, 64, 64))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, clear))

		out, ct, err := p.PrepareForModel(buf.Bytes(), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", ct)

		decoded, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		r, g, b, _ := decoded.At(8, 8).RGBA()
		assert.Greater(t, r>>8, uint32(240))
		assert.Greater(t, g>>8, uint32(240))
		assert.Greater(t, b>>8, uint32(240))
	})

	t.Run("disabled", func(t *testing.T) {
		p := NewImageProcessor(0)
		out, ct, err := p.PrepareForModel([]byte("anything"), "application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, []byte("anything"), out)
		assert.Equal(t, "application/octet-stream", ct)
	})

	t.Run("undecodable", func(t *testing.T) {
		p := NewImageProcessor(10)
		_, _, err := p.PrepareForModel([]byte("nope"), "image/png")
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}
