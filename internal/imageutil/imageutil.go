// Package imageutil decodes captured screenshots and resizes them.
package imageutil

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"math"
	"strconv"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // WebP decoder, returned by some CDP-backed drivers

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
)

// Decode decodes PNG, JPEG or WebP screenshot bytes.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperrors.New(apperrors.ImageDecodeFailed, "empty screenshot")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ImageDecodeFailed, "decode screenshot").
			WithMetadata("bytes", strconv.Itoa(len(data)))
	}
	return img, format, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "encode png")
	}
	return buf.Bytes(), nil
}

// ScaledSize returns the dimensions of a w x h image scaled by ratio, never below 1x1.
func ScaledSize(w, h int, ratio float64) (int, int) {
	sw := int(math.Round(float64(w) * ratio))
	sh := int(math.Round(float64(h) * ratio))
	return max(sw, 1), max(sh, 1)
}

// Scale resizes img by ratio using interp. A ratio of 1 returns img unchanged.
func Scale(img image.Image, ratio float64, interp resize.InterpolationFunction) (image.Image, error) {
	if img == nil {
		return nil, apperrors.New(apperrors.InvalidArgument, "image is nil")
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "scale ratio must be positive, got %v", ratio)
	}
	if ratio == 1 {
		return img, nil
	}

	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), ratio)
	scaled := resize.Resize(uint(w), uint(h), img, interp)
	if scaled == nil {
		return nil, apperrors.Newf(apperrors.ImageScaleFailed, "resize %dx%d to %dx%d", b.Dx(), b.Dy(), w, h)
	}
	return scaled, nil
}
