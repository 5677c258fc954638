package fluent

import (
	"context"

	"github.com/GriffinCanCode/eyes-go/internal/geometry"
)

// GetRegions resolves a selector into concrete regions at submission time.
type GetRegions interface {
	Regions(ctx context.Context) ([]geometry.Region, error)
}

// GetFloatingRegions resolves a selector into floating regions at submission time.
type GetFloatingRegions interface {
	FloatingRegions(ctx context.Context) ([]FloatingMatchSettings, error)
}

// FloatingMatchSettings is a region that may move by up to the given offsets.
type FloatingMatchSettings struct {
	geometry.Region
	MaxUpOffset    int `json:"maxUpOffset"`
	MaxDownOffset  int `json:"maxDownOffset"`
	MaxLeftOffset  int `json:"maxLeftOffset"`
	MaxRightOffset int `json:"maxRightOffset"`
}

// RegionsByRectangle selects one literal rectangle.
type RegionsByRectangle struct {
	Rect geometry.Region
}

// Regions returns the wrapped rectangle.
func (r RegionsByRectangle) Regions(context.Context) ([]geometry.Region, error) {
	return []geometry.Region{r.Rect}, nil
}

// FloatingRegionsByRectangle selects one literal rectangle with directional tolerances.
type FloatingRegionsByRectangle struct {
	Bounds         geometry.Edges
	MaxUpOffset    int
	MaxDownOffset  int
	MaxLeftOffset  int
	MaxRightOffset int
}

// FloatingRegions returns the wrapped rectangle with its offsets.
func (f FloatingRegionsByRectangle) FloatingRegions(context.Context) ([]FloatingMatchSettings, error) {
	return []FloatingMatchSettings{{
		Region:         f.Bounds.Region(),
		MaxUpOffset:    f.MaxUpOffset,
		MaxDownOffset:  f.MaxDownOffset,
		MaxLeftOffset:  f.MaxLeftOffset,
		MaxRightOffset: f.MaxRightOffset,
	}}, nil
}
