package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	raw := pngBytes(t, 4, 4)
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := Decode("data:image/png;base64,"+encoded, 0)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = Decode(encoded, 0)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = Decode("data:text/plain;base64,aGVsbG8=", 0)
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	_, err = Decode("   ", 0)
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	_, err = Decode(encoded, 8)
	assert.ErrorIs(t, err, ErrPhotoTooLarge)
}

func TestNormalize_ShrinksToMaxDimension(t *testing.T) {
	out, err := Normalize(pngBytes(t, 200, 100), 50)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestNormalize_RejectsNonImages(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), 50)
	assert.ErrorIs(t, err, ErrInvalidPhoto)
}

func TestProcessor_InlineRoundTrip(t *testing.T) {
	p := NewProcessor(InlineStore{}, "photos/", 1<<20, 64)
	ctx := context.Background()

	ref, err := p.Save(ctx, "user-1", "clock-in", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.True(t, strings.HasPrefix(*ref, "data:image/jpeg;base64,"))

	data, contentType, err := p.Load(ctx, *ref)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJPEG, contentType)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	none, err := p.Save(ctx, "user-1", "clock-in", "")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.NoError(t, p.Delete(ctx, *ref))
}

func TestSplitS3Ref(t *testing.T) {
	bucket, key, ok := splitS3Ref("s3://timecard/photos/u1/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "timecard", bucket)
	assert.Equal(t, "photos/u1/a.jpg", key)

	_, _, ok = splitS3Ref("s3://bucket-only")
	assert.False(t, ok)
}
