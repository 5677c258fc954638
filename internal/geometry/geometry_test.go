package geometry

import "testing"

func TestRegionEdges(t *testing.T) {
	r := NewRegion(10, 20, 100, 50)
	e := r.Edges()

	if e.Left != 10 || e.Top != 20 || e.Right != 110 || e.Bottom != 70 {
		t.Errorf("Edges() = %+v, want {10 20 110 70}", e)
	}
	if e.Region() != r {
		t.Errorf("Edges().Region() = %+v, want %+v", e.Region(), r)
	}
}

func TestRegionIsEmpty(t *testing.T) {
	tests := []struct {
		r    Region
		want bool
	}{
		{NewRegion(0, 0, 10, 10), false},
		{NewRegion(5, 5, 0, 10), true},
		{NewRegion(5, 5, 10, -1), true},
	}
	for _, tt := range tests {
		if got := tt.r.IsEmpty(); got != tt.want {
			t.Errorf("%v.IsEmpty() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestRectangleSizeValid(t *testing.T) {
	if !(RectangleSize{Width: 1, Height: 1}).Valid() {
		t.Error("1x1 should be valid")
	}
	if (RectangleSize{Width: 0, Height: 1}).Valid() {
		t.Error("0x1 should be invalid")
	}
	if (RectangleSize{Width: 1024, Height: 768}).String() != "1024x768" {
		t.Error("String() should format as WxH")
	}
}
