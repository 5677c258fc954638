// Package geometry holds the rectangle types shared by check settings and scaling.
package geometry

import "fmt"

// RectangleSize is a width/height pair, e.g. a viewport or full page size.
type RectangleSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s RectangleSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s RectangleSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Region is a rectangle in left/top/width/height form.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRegion creates a region from left, top, width and height.
func NewRegion(left, top, width, height int) Region {
	return Region{Left: left, Top: top, Width: width, Height: height}
}

// Edges converts the region to left/top/right/bottom form.
func (r Region) Edges() Edges {
	return Edges{Left: r.Left, Top: r.Top, Right: r.Left + r.Width, Bottom: r.Top + r.Height}
}

// IsEmpty reports whether the region covers no pixels.
func (r Region) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Region) String() string {
	return fmt.Sprintf("(%d, %d) %dx%d", r.Left, r.Top, r.Width, r.Height)
}

// Edges is a rectangle in left/top/right/bottom form.
type Edges struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Region converts back to left/top/width/height form.
func (e Edges) Region() Region {
	return Region{Left: e.Left, Top: e.Top, Width: e.Right - e.Left, Height: e.Bottom - e.Top}
}
