package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"ourspace/internal/imaging"
)

func pngOf(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func TestPrepare_ScalesWideImages(t *testing.T) {
	out, err := imaging.Prepare(pngOf(t, 1600, 900, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)

	b := decodeJPEG(t, out).Bounds()
	require.Equal(t, 800, b.Dx())
	require.Equal(t, 450, b.Dy())
}

func TestPrepare_KeepsNarrowImages(t *testing.T) {
	out, err := imaging.Prepare(pngOf(t, 320, 1000, color.NRGBA{G: 200, A: 255}))
	require.NoError(t, err)

	b := decodeJPEG(t, out).Bounds()
	require.Equal(t, 320, b.Dx())
	require.Equal(t, 1000, b.Dy())
}

func TestPrepare_FlattensOntoWhite(t *testing.T) {
	out, err := imaging.Prepare(pngOf(t, 16, 16, color.NRGBA{}))
	require.NoError(t, err)

	r, g, b, _ := decodeJPEG(t, out).At(8, 8).RGBA()
	for _, v := range []uint32{r, g, b} {
		require.Greater(t, v>>8, uint32(240))
	}
}

func TestPrepare_Unreadable(t *testing.T) {
	_, err := imaging.Prepare([]byte("definitely not an image"))
	require.ErrorIs(t, err, imaging.ErrUnreadableImage)
}

func TestDataURL_RoundTrip(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}
	url := imaging.DataURL(payload)
	require.Contains(t, url, "data:image/jpeg;base64,")

	got, mediaType, err := imaging.ParseDataURL(url)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mediaType)
	require.Equal(t, payload, got)

	_, _, err = imaging.ParseDataURL("hello")
	require.ErrorIs(t, err, imaging.ErrNotDataURL)
}
