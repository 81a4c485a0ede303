package imaging

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Text is rendered with the fixed-width basicfont face and integer-scaled
// for the larger sizes. Scale 1 is the metadata listing, 2 the title and
// captions, 3 the alphanumeric marker glyphs.
const (
	smallScale = 1
	titleScale = 2
	largeScale = 3

	baseFontHeight = 13
	lineGap        = 2
)

// textWidth returns the rendered width of s at the given scale.
func textWidth(s string, scale int) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil() * scale
}

// lineHeight returns the rendered line height at the given scale.
func lineHeight(scale int) int {
	return baseFontHeight * scale
}

// drawText renders s onto dst with its top-left corner at (x, y), scaled by
// the integer scale factor and blended with the given shade. The text is
// drawn at base size into a small mask, scaled up with bilinear
// interpolation, then composited so antialiased edges stay smooth.
func drawText(dst *image.Gray, x, y int, s string, scale int, shade uint8) {
	if s == "" {
		return
	}

	face := basicfont.Face7x13
	baseWidth := font.MeasureString(face, s).Ceil()
	if baseWidth == 0 {
		return
	}

	mask := image.NewRGBA(image.Rect(0, 0, baseWidth, baseFontHeight))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(baseFontHeight - 2)},
	}
	drawer.DrawString(s)

	scaled := mask
	if scale > 1 {
		scaled = image.NewRGBA(image.Rect(0, 0, baseWidth*scale, baseFontHeight*scale))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Over, nil)
	}

	bounds := dst.Bounds()
	sw, sh := scaled.Bounds().Dx(), scaled.Bounds().Dy()
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			_, _, _, a := scaled.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			dx, dy := x+sx, y+sy
			if dx < bounds.Min.X || dx >= bounds.Max.X || dy < bounds.Min.Y || dy >= bounds.Max.Y {
				continue
			}
			alpha := uint32(a >> 8)
			existing := uint32(dst.GrayAt(dx, dy).Y)
			blended := (existing*(255-alpha) + uint32(shade)*alpha) / 255
			dst.SetGray(dx, dy, color.Gray{Y: uint8(blended)})
		}
	}
}

// wrapText splits text into lines that each fit within maxWidth at the
// given scale. Words accumulate greedily onto the current line; a single
// word wider than maxWidth is truncated with an ellipsis rather than
// allowed to overflow.
func wrapText(text string, maxWidth, scale int) []string {
	words := strings.Split(text, " ")
	var lines []string
	current := ""

	for _, word := range words {
		test := current
		if test != "" {
			test += " "
		}
		test += word

		if textWidth(test, scale) <= maxWidth {
			current = test
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		if textWidth(word, scale) > maxWidth {
			current = truncateWithEllipsis(word, maxWidth, scale)
		} else {
			current = word
		}
	}

	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// truncateWithEllipsis trims word until it, plus the trailing ellipsis,
// fits within maxWidth.
func truncateWithEllipsis(word string, maxWidth, scale int) string {
	runes := []rune(word)
	for len(runes) > 0 && textWidth(string(runes)+"...", scale) > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// drawWrapped draws left-aligned word-wrapped text starting at (x, y) and
// returns the y position below the last line.
func drawWrapped(dst *image.Gray, text string, x, y, maxWidth, scale int, shade uint8) int {
	for _, line := range wrapText(text, maxWidth, scale) {
		drawText(dst, x, y, line, scale, shade)
		y += lineHeight(scale) + lineGap
	}
	return y
}

// drawWrappedCentered draws word-wrapped text with each line centered in
// width (with a 20px margin either side) and returns the y position below
// the last line.
func drawWrappedCentered(dst *image.Gray, text string, y, width, scale int, shade uint8) int {
	for _, line := range wrapText(text, width-40, scale) {
		x := (width - textWidth(line, scale)) / 2
		drawText(dst, x, y, line, scale, shade)
		y += lineHeight(scale) + lineGap
	}
	return y
}
