// Package scale decides how much to shrink a captured screenshot so that
// images taken at different device pixel ratios become comparable.
package scale

import (
	"image"
	"log/slog"
	"math"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/geometry"
	"github.com/GriffinCanCode/eyes-go/internal/imageutil"
)

// Allowed deviations between the image width and the reference widths.
const (
	AllowedViewportDeviation = 1
	AllowedContentDeviation  = 10
)

// Provider supplies the ratio applied to captured images.
type Provider interface {
	ScaleRatio() (float64, error)
	ScaleImage(img image.Image) (image.Image, error)
}

// RatioUpdater is implemented by providers whose ratio depends on the first
// captured image.
type RatioUpdater interface {
	UpdateScaleRatio(imageWidth float64)
}

// ContextBased determines the ratio from the viewport and top level context
// sizes. It is not safe for concurrent use.
type ContextBased struct {
	topLevelContextSize geometry.RectangleSize
	viewportSize        geometry.RectangleSize
	method              Method
	devicePixelRatio    float64

	ratio    float64
	hasRatio bool
}

// NewContextBased creates a provider for one capture session.
// topLevelContextSize is the full scrollable size of the top level frame.
func NewContextBased(topLevelContextSize, viewportSize geometry.RectangleSize, method Method, devicePixelRatio float64) (*ContextBased, error) {
	if !topLevelContextSize.Valid() {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "top level context size must be positive, got %v", topLevelContextSize).
			WithMetadata("field", "topLevelContextSize")
	}
	if !viewportSize.Valid() {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "viewport size must be positive, got %v", viewportSize).
			WithMetadata("field", "viewportSize")
	}
	if !(devicePixelRatio > 0) || math.IsInf(devicePixelRatio, 0) {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "device pixel ratio must be positive, got %v", devicePixelRatio).
			WithMetadata("field", "devicePixelRatio")
	}
	return &ContextBased{
		topLevelContextSize: topLevelContextSize,
		viewportSize:        viewportSize,
		method:              method,
		devicePixelRatio:    devicePixelRatio,
	}, nil
}

// UpdateScaleRatio sets the ratio from the width of a just-captured image.
// An image already matching the viewport or the full content width needs no
// scaling; anything else is assumed to be at device resolution.
func (p *ContextBased) UpdateScaleRatio(imageWidth float64) {
	viewportWidth := float64(p.viewportSize.Width)
	contentWidth := float64(p.topLevelContextSize.Width)

	if math.Abs(imageWidth-viewportWidth) <= AllowedViewportDeviation ||
		math.Abs(imageWidth-contentWidth) <= AllowedContentDeviation {
		p.ratio = 1
	} else {
		p.ratio = 1 / p.devicePixelRatio
	}
	p.hasRatio = true

	slog.Debug("scale ratio updated",
		"image_width", imageWidth,
		"viewport_width", p.viewportSize.Width,
		"content_width", p.topLevelContextSize.Width,
		"device_pixel_ratio", p.devicePixelRatio,
		"ratio", p.ratio)
}

// ScaleRatio returns the ratio. It fails until UpdateScaleRatio has run.
func (p *ContextBased) ScaleRatio() (float64, error) {
	if !p.hasRatio {
		return 0, apperrors.New(apperrors.InvalidState, "scale ratio not defined yet")
	}
	return p.ratio, nil
}

// ScaleImage resizes img by the current ratio.
func (p *ContextBased) ScaleImage(img image.Image) (image.Image, error) {
	ratio, err := p.ScaleRatio()
	if err != nil {
		return nil, err
	}
	return imageutil.Scale(img, ratio, p.method.Interpolation())
}

// Fixed always applies the same ratio.
type Fixed struct {
	ratio  float64
	method Method
}

// NewFixed creates a provider with a constant ratio.
func NewFixed(ratio float64, method Method) (*Fixed, error) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "scale ratio must be positive, got %v", ratio)
	}
	return &Fixed{ratio: ratio, method: method}, nil
}

// ScaleRatio returns the fixed ratio.
func (p *Fixed) ScaleRatio() (float64, error) { return p.ratio, nil }

// ScaleImage resizes img by the fixed ratio.
func (p *Fixed) ScaleImage(img image.Image) (image.Image, error) {
	return imageutil.Scale(img, p.ratio, p.method.Interpolation())
}

// Null never scales.
type Null struct{}

// ScaleRatio is always 1.
func (Null) ScaleRatio() (float64, error) { return 1, nil }

// ScaleImage returns img unchanged.
func (Null) ScaleImage(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, apperrors.New(apperrors.InvalidArgument, "image is nil")
	}
	return img, nil
}

var (
	_ Provider     = (*ContextBased)(nil)
	_ RatioUpdater = (*ContextBased)(nil)
	_ Provider     = (*Fixed)(nil)
	_ Provider     = Null{}
)
