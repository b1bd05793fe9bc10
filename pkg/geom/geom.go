// Package geom holds the quadrilateral geometry used by charBB and wordBB labels.
package geom

import (
	"github.com/bmharper/flatbush-go"
	"github.com/chewxy/math32"
)

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Quad is a bounding quadrilateral. Vertices run clockwise from the top-left
// corner of the text, which is not necessarily the top-left of the image.
type Quad [4]Point

// Axis aligned bounds of the quad
func (q Quad) Bounds() (minX, minY, maxX, maxY float32) {
	minX, minY = q[0].X, q[0].Y
	maxX, maxY = q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return
}

// Area of the quad (shoelace formula). Self-intersecting quads give meaningless results.
func (q Quad) Area() float32 {
	sum := float32(0)
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math32.Abs(sum) / 2
}

func (q Quad) Center() Point {
	c := Point{}
	for _, p := range q {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= 4
	c.Y /= 4
	return c
}

// IsFinite returns false if any coordinate is NaN or Inf
func (q Quad) IsFinite() bool {
	for _, p := range q {
		if math32.IsNaN(p.X) || math32.IsNaN(p.Y) || math32.IsInf(p.X, 0) || math32.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// Inside returns true if every vertex lies within [0,width] x [0,height]
func (q Quad) Inside(width, height int) bool {
	minX, minY, maxX, maxY := q.Bounds()
	return minX >= 0 && minY >= 0 && maxX <= float32(width) && maxY <= float32(height)
}

// Overlaps returns all pairs (i,j), i < j, whose axis aligned bounds intersect.
func Overlaps(quads []Quad) [][2]int {
	if len(quads) < 2 {
		return nil
	}
	// Create spatial index to avoid O(N^2) comparisons
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(quads))
	for _, q := range quads {
		x1, y1, x2, y2 := intBounds(q)
		fb.Add(x1, y1, x2, y2)
	}
	fb.Finish()

	pairs := [][2]int{}
	for i, q := range quads {
		x1, y1, x2, y2 := intBounds(q)
		for _, j := range fb.Search(x1, y1, x2, y2) {
			if j <= i {
				continue
			}
			if boundsIntersect(q, quads[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

func intBounds(q Quad) (int32, int32, int32, int32) {
	minX, minY, maxX, maxY := q.Bounds()
	return int32(math32.Floor(minX)), int32(math32.Floor(minY)), int32(math32.Ceil(maxX)), int32(math32.Ceil(maxY))
}

// The spatial index works on integer bounds, so we confirm with the exact float bounds
func boundsIntersect(a, b Quad) bool {
	ax1, ay1, ax2, ay2 := a.Bounds()
	bx1, by1, bx2, by2 := b.Bounds()
	return ax1 < bx2 && bx1 < ax2 && ay1 < by2 && by1 < ay2
}
