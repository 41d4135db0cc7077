package progress

import "math"

// RingGeometry describes the SVG progress ring for a percentage.
type RingGeometry struct {
	Size          float64 `json:"size"`
	Stroke        float64 `json:"stroke"`
	Radius        float64 `json:"radius"`
	Circumference float64 `json:"circumference"`
	DashOffset    float64 `json:"dashOffset"`
}

// Ring computes the ring geometry; a full ring has zero dash offset.
func Ring(percent int, size, stroke float64) RingGeometry {
	r := size/2 - stroke
	c := 2 * math.Pi * r
	return RingGeometry{
		Size:          size,
		Stroke:        stroke,
		Radius:        r,
		Circumference: c,
		DashOffset:    c * (1 - float64(percent)/100),
	}
}
