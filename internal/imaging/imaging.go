// Package imaging renders the grayscale verification image embedded in every
// fabricated instance.
//
// The visible content (title, disclaimers, metadata listing, marker glyphs)
// is generated from the same structured metadata that is written into the
// file, so a viewer can verify the two never diverge.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"time"
)

// Metadata holds the field values listed on the rendered image.
type Metadata struct {
	PatientName       string
	PatientID         string
	AccessionNumber   string
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	StudyDate         string
	StudyTime         string
	Modality          string
	StudyDescription  string
	SeriesDescription string
}

const (
	title       = "DICOM TEST IMAGE - NOT FOR CLINICAL USE"
	disclaimer1 = "Metadata shown below correct at time of generation"
	disclaimer2 = "PACS and integrations may change the dicom tags to contain different data than displayed here"
	footerText  = "DICOM Fabricator - flatmapit.com"

	markerCellSize    = 50
	markerCellSpacing = 15
)

var defaultRNG = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

// Render produces a width×height verification image.
//
// If items is non-nil it must hold exactly MarkerCount marker names and is
// used verbatim (series-level reuse); otherwise a fresh set is selected from
// rng. The caption "Series N Image M" is drawn when both numbers are
// positive. The returned slice is the ordered marker list actually drawn;
// callers embed it, comma-joined, into the series description so the visual
// markers and the textual metadata stay consistent.
func Render(width, height int, meta Metadata, items []string, seriesNumber, instanceNumber int, rng *rand.Rand) (*image.Gray, []string, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if items != nil && len(items) != MarkerCount {
		return nil, nil, fmt.Errorf("marker set must hold exactly %d items, got %d", MarkerCount, len(items))
	}
	if items == nil {
		if rng == nil {
			rng = defaultRNG
		}
		items = SelectMarkers(rng)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	// Frame border.
	drawRectOutline(img, 0, 0, width-1, height-1, 2, 0)

	y := 20
	y = drawWrappedCentered(img, title, y, width, titleScale, 0)

	y += 30
	y = drawWrappedCentered(img, disclaimer1, y, width, smallScale, 0)
	y += 5
	y = drawWrappedCentered(img, disclaimer2, y, width, smallScale, 0)

	y += 20
	drawHRule(img, 20, width-20, y)

	y += 30
	for _, line := range metadataLines(meta) {
		y = drawWrapped(img, line, 30, y, width-60, smallScale, 0)
		y += 5
	}

	y += 40
	drawHRule(img, 20, width-20, y)
	y += 30

	if seriesNumber > 0 && instanceNumber > 0 {
		caption := fmt.Sprintf("Series %d Image %d", seriesNumber, instanceNumber)
		y = drawWrappedCentered(img, caption, y, width, titleScale, 0)
		y += 20
	}

	// All markers fit in one centered row.
	totalWidth := MarkerCount*(markerCellSize+markerCellSpacing) - markerCellSpacing
	xStart := (width - totalWidth) / 2
	for i, item := range items {
		x := xStart + i*(markerCellSize+markerCellSpacing)
		drawMarker(img, item, x, y, markerCellSize)
	}

	// Low-contrast footer.
	footerY := height - 30
	footerX := (width - textWidth(footerText, smallScale)) / 2
	drawText(img, footerX, footerY, footerText, smallScale, 128)

	used := make([]string, len(items))
	copy(used, items)
	return img, used, nil
}

// metadataLines builds the key/value listing in display order, tagged with
// the DICOM element each value is written to.
func metadataLines(meta Metadata) []string {
	return []string{
		fmt.Sprintf("(0010,0010) Patient Name: %s", orNA(meta.PatientName)),
		fmt.Sprintf("(0010,0020) Patient ID: %s", orNA(meta.PatientID)),
		fmt.Sprintf("(0008,0050) Accession: %s", orNA(meta.AccessionNumber)),
		fmt.Sprintf("(0020,000D) Study UID: %s", orNA(meta.StudyInstanceUID)),
		fmt.Sprintf("(0020,000E) Series UID: %s", orNA(meta.SeriesInstanceUID)),
		fmt.Sprintf("(0008,0018) SOP UID: %s", orNA(meta.SOPInstanceUID)),
		fmt.Sprintf("(0008,0020) Study Date: %s", orNA(meta.StudyDate)),
		fmt.Sprintf("(0008,0030) Study Time: %s", orNA(meta.StudyTime)),
		fmt.Sprintf("(0008,0060) Modality: %s", orNA(meta.Modality)),
		fmt.Sprintf("(0008,1030) Study Description: %s", orNA(meta.StudyDescription)),
		fmt.Sprintf("(0008,103E) Series Description: %s", orNA(meta.SeriesDescription)),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// drawHRule draws a 1px horizontal separator rule from x0 to x1 at y.
func drawHRule(dst *image.Gray, x0, x1, y int) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := x0; x <= x1; x++ {
		if x >= bounds.Min.X && x < bounds.Max.X {
			dst.SetGray(x, y, color.Gray{Y: 0})
		}
	}
}
