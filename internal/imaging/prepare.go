package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	// Decoders register themselves with image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"ourspace/internal/crypto"
)

const (
	MaxWidth = 800
	Quality  = 60
)

var (
	// ErrUnreadableImage means the input could not be decoded as an image.
	ErrUnreadableImage = errors.New("unreadable image")
	ErrNotDataURL      = errors.New("not a base64 data URL")
)

// Prepare returns a JPEG no wider than MaxWidth. Height scales with the
// width; images already narrow enough keep their size.
func Prepare(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty bounds", ErrUnreadableImage)
	}
	if w > MaxWidth {
		h = max(1, h*MaxWidth/w)
		w = MaxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DataURL wraps a JPEG as data:image/jpeg;base64,...
func DataURL(jpegBytes []byte) string {
	return "data:image/jpeg;base64," + crypto.B64(jpegBytes)
}

// ParseDataURL splits a base64 data URL into its bytes and media type.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	b, err := crypto.UnB64(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return b, mediaType, nil
}
