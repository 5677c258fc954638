package scale

import (
	"strings"

	"github.com/nfnt/resize"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
)

// Method trades resize speed for quality.
type Method int

const (
	Speed        Method = iota // nearest neighbour
	Quality                    // bilinear
	UltraQuality               // Lanczos3
)

var methodNames = [...]string{"speed", "quality", "ultra-quality"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// Interpolation returns the resampling function used for m.
func (m Method) Interpolation() resize.InterpolationFunction {
	switch m {
	case Quality:
		return resize.Bilinear
	case UltraQuality:
		return resize.Lanczos3
	default:
		return resize.NearestNeighbor
	}
}

// ParseMethod converts a method name, case-insensitively. Underscores are
// accepted in place of dashes.
func ParseMethod(s string) (Method, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range methodNames {
		if name == norm {
			return Method(i), nil
		}
	}
	return Speed, apperrors.Newf(apperrors.InvalidArgument, "unknown scale method %q", s)
}
