package imaging

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
)

// MarkerCount is the number of marker items drawn on every image.
const MarkerCount = 6

var (
	// markerShapes are the geometric marker names.
	markerShapes = []string{"triangle", "star", "circle", "moon", "square", "pentagon", "octagon"}
	// markerLetters and markerDigits are the alphanumeric markers.
	markerLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	markerDigits  = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
)

// SelectMarkers draws MarkerCount items without replacement from the union
// of shape names, letters and digits, in shuffled order.
func SelectMarkers(rng *rand.Rand) []string {
	pool := make([]string, 0, len(markerShapes)+len(markerLetters)+len(markerDigits))
	pool = append(pool, markerShapes...)
	pool = append(pool, markerLetters...)
	pool = append(pool, markerDigits...)

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	items := make([]string, MarkerCount)
	copy(items, pool[:MarkerCount])
	return items
}

// isShape reports whether the marker item is a geometric shape name.
func isShape(item string) bool {
	for _, s := range markerShapes {
		if s == item {
			return true
		}
	}
	return false
}

// drawMarker renders one marker item into a size×size cell at (x, y).
// Shapes are drawn from explicit geometry; letters and digits are centered
// text inside a bordered cell.
func drawMarker(dst *image.Gray, item string, x, y, size int) {
	if isShape(item) {
		drawShape(dst, item, x, y, size)
		return
	}

	tw := textWidth(item, largeScale)
	th := lineHeight(largeScale)
	drawText(dst, x+(size-tw)/2, y+(size-th)/2, item, largeScale, 0)
	drawRectOutline(dst, x, y, x+size, y+size, 1, 0)
}

// drawShape renders a named geometric shape into a size×size cell at (x, y).
func drawShape(dst *image.Gray, shape string, x, y, size int) {
	cx := x + size/2
	cy := y + size/2
	radius := size / 3
	if radius > 25 {
		radius = 25
	}

	switch shape {
	case "circle":
		drawEllipseOutline(dst, cx, cy, radius, radius, 2, 0)

	case "square":
		drawRectOutline(dst, cx-radius, cy-radius, cx+radius, cy+radius, 2, 0)

	case "triangle":
		drawPolygonOutline(dst, []point{
			{float64(cx), float64(cy - radius)},
			{float64(cx - radius), float64(cy + radius)},
			{float64(cx + radius), float64(cy + radius)},
		}, 2, 0)

	case "star":
		// Ten vertices alternating between the outer and inner radius.
		pts := make([]point, 0, 10)
		for i := 0; i < 10; i++ {
			r := float64(radius)
			if i%2 != 0 {
				r = float64(radius / 2)
			}
			angle := float64(i)*math.Pi/5 - math.Pi/2
			pts = append(pts, point{float64(cx) + r*math.Cos(angle), float64(cy) + r*math.Sin(angle)})
		}
		drawPolygonOutline(dst, pts, 2, 0)

	case "pentagon":
		drawPolygonOutline(dst, regularPolygon(cx, cy, radius, 5), 2, 0)

	case "octagon":
		drawPolygonOutline(dst, regularPolygon(cx, cy, radius, 8), 2, 0)

	case "moon":
		// A circle with a bite taken out: overpaint with an offset filled
		// white ellipse.
		drawEllipseOutline(dst, cx, cy, radius, radius, 2, 0)
		ecx := cx + radius/4
		erx := (radius + radius/2) / 2
		fillEllipse(dst, ecx, cy, erx, radius, 255)
		drawEllipseOutline(dst, ecx, cy, erx, radius, 1, 0)
	}
}

// regularPolygon returns n vertices of a regular polygon with the first
// vertex pointing up.
func regularPolygon(cx, cy, radius, n int) []point {
	pts := make([]point, 0, n)
	for i := 0; i < n; i++ {
		angle := float64(i)*2*math.Pi/float64(n) - math.Pi/2
		pts = append(pts, point{float64(cx) + float64(radius)*math.Cos(angle), float64(cy) + float64(radius)*math.Sin(angle)})
	}
	return pts
}

type point struct {
	x, y float64
}

// drawPolygonOutline strokes the closed polygon through pts.
func drawPolygonOutline(dst *image.Gray, pts []point, stroke int, shade uint8) {
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		drawLine(dst, pts[i], next, stroke, shade)
	}
}

// drawLine strokes a straight segment by stepping along its length.
func drawLine(dst *image.Gray, a, b point, stroke int, shade uint8) {
	dx := b.x - a.x
	dy := b.y - a.y
	length := math.Hypot(dx, dy)
	steps := int(length) * 2
	if steps < 1 {
		steps = 1
	}

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setThick(dst, int(math.Round(a.x+dx*t)), int(math.Round(a.y+dy*t)), stroke, shade)
	}
}

// setThick sets a stroke×stroke block of pixels centered near (x, y).
func setThick(dst *image.Gray, x, y, stroke int, shade uint8) {
	bounds := dst.Bounds()
	for oy := 0; oy < stroke; oy++ {
		for ox := 0; ox < stroke; ox++ {
			px, py := x+ox-stroke/2, y+oy-stroke/2
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				dst.SetGray(px, py, color.Gray{Y: shade})
			}
		}
	}
}

// drawRectOutline strokes the rectangle with corners (x0, y0) and (x1, y1).
func drawRectOutline(dst *image.Gray, x0, y0, x1, y1, stroke int, shade uint8) {
	bounds := dst.Bounds()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			onEdge := x-x0 < stroke || x1-x < stroke || y-y0 < stroke || y1-y < stroke
			if !onEdge {
				continue
			}
			if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
				dst.SetGray(x, y, color.Gray{Y: shade})
			}
		}
	}
}

// drawEllipseOutline strokes an axis-aligned ellipse centered at (cx, cy).
func drawEllipseOutline(dst *image.Gray, cx, cy, rx, ry, stroke int, shade uint8) {
	if rx <= 0 || ry <= 0 {
		return
	}
	bounds := dst.Bounds()
	irx := float64(rx - stroke)
	iry := float64(ry - stroke)
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			dx := float64(x - cx)
			dy := float64(y - cy)
			outer := dx*dx/float64(rx*rx)+dy*dy/float64(ry*ry) <= 1.0
			inner := irx > 0 && iry > 0 && dx*dx/(irx*irx)+dy*dy/(iry*iry) <= 1.0
			if outer && !inner {
				if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
					dst.SetGray(x, y, color.Gray{Y: shade})
				}
			}
		}
	}
}

// fillEllipse fills an axis-aligned ellipse centered at (cx, cy).
func fillEllipse(dst *image.Gray, cx, cy, rx, ry int, shade uint8) {
	if rx <= 0 || ry <= 0 {
		return
	}
	bounds := dst.Bounds()
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			dx := float64(x - cx)
			dy := float64(y - cy)
			if dx*dx/float64(rx*rx)+dy*dy/float64(ry*ry) <= 1.0 {
				if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
					dst.SetGray(x, y, color.Gray{Y: shade})
				}
			}
		}
	}
}
