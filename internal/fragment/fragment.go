package fragment

import "sort"

// Box is an axis-aligned bounding box in image coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return b.Y + b.Height/2 }

// Fragment is one recognized text span with bounding geometry and
// recognition confidence. Fragments are produced by the OCR collaborator
// and are not mutated by the matching engine.
type Fragment struct {
	Text       string  `json:"text"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// CenterX returns the horizontal center of the fragment's box.
func (f Fragment) CenterX() float64 { return f.Box.CenterX() }

// CenterY returns the vertical center of the fragment's box.
func (f Fragment) CenterY() float64 { return f.Box.CenterY() }

// SortVertical sorts fragments in-place by vertical center (top to bottom).
// Ties are broken by horizontal position so ordering stays deterministic.
func SortVertical(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		ci, cj := frags[i].CenterY(), frags[j].CenterY()
		if ci != cj {
			return ci < cj
		}
		return frags[i].Box.X < frags[j].Box.X
	})
}

// SortHorizontal sorts fragments in-place by horizontal position (left to right).
func SortHorizontal(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Box.X < frags[j].Box.X
	})
}

// MedianHeight returns the median fragment box height, or 0 for empty input.
// Row clustering tolerances are expressed as a fraction of this value so the
// grouper adapts to the text scale of the capture.
func MedianHeight(frags []Fragment) float64 {
	if len(frags) == 0 {
		return 0
	}
	heights := make([]float64, len(frags))
	for i, f := range frags {
		heights[i] = f.Box.Height
	}
	sort.Float64s(heights)
	mid := len(heights) / 2
	if len(heights)%2 == 0 {
		return (heights[mid-1] + heights[mid]) / 2
	}
	return heights[mid]
}
