package tests

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/flatmapit/dicomfabricator/internal/config"
	"github.com/flatmapit/dicomfabricator/internal/dicomtag"
	"github.com/flatmapit/dicomfabricator/internal/export"
	"github.com/flatmapit/dicomfabricator/internal/fabricator"
	"github.com/flatmapit/dicomfabricator/internal/registry"
)

func newFabricator(t *testing.T, seed uint64) *fabricator.Fabricator {
	t.Helper()

	rng := rand.New(rand.NewPCG(seed, 0))
	cfg := config.Default()
	reg, err := registry.Open(filepath.Join(t.TempDir(), "patients.json"), cfg, rng, zerolog.Nop())
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	return fabricator.New(reg, cfg, rng, zerolog.Nop())
}

func stringValue(t *testing.T, ds dicom.Dataset, tg tag.Tag) string {
	t.Helper()

	elem, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("tag %v not found: %v", tg, err)
	}
	vals, ok := elem.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		t.Fatalf("tag %v has no string value", tg)
	}
	return vals[0]
}

// TestFabricate_Basic fabricates a single-series study and checks that every
// produced file exists and parses.
func TestFabricate_Basic(t *testing.T) {
	fab := newFabricator(t, 42)
	outputDir := t.TempDir()

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: outputDir,
		Series:    []fabricator.SeriesConfig{{Images: 3, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	if len(result.Series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(result.Series))
	}
	if len(result.Series[0].Files) != 3 {
		t.Fatalf("Expected 3 files, got %d", len(result.Series[0].Files))
	}

	for i, file := range result.Series[0].Files {
		if _, err := os.Stat(file.Path); os.IsNotExist(err) {
			t.Errorf("File %d does not exist: %s", i+1, file.Path)
			continue
		}
		if _, err := dicom.ParseFile(file.Path, nil); err != nil {
			t.Errorf("File %d failed to parse: %v", i+1, err)
		}
	}

	if result.StudyUID == "" {
		t.Error("StudyUID should not be empty")
	}
	if result.PatientID == "" {
		t.Error("PatientID should not be empty")
	}
}

// TestFabricate_RequiredTags parses a generated file and verifies the tag set
// a PACS ingest pipeline needs.
func TestFabricate_RequiredTags(t *testing.T) {
	fab := newFabricator(t, 42)

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: t.TempDir(),
		Series:    []fabricator.SeriesConfig{{Images: 1, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	path := result.Series[0].Files[0].Path
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("Failed to parse DICOM file: %v", err)
	}

	requiredTags := []struct {
		tag  tag.Tag
		name string
	}{
		{tag.PatientName, "PatientName"},
		{tag.PatientID, "PatientID"},
		{tag.PatientBirthDate, "PatientBirthDate"},
		{tag.PatientSex, "PatientSex"},
		{tag.StudyInstanceUID, "StudyInstanceUID"},
		{tag.AccessionNumber, "AccessionNumber"},
		{tag.StudyDescription, "StudyDescription"},
		{tag.SeriesInstanceUID, "SeriesInstanceUID"},
		{tag.SeriesDescription, "SeriesDescription"},
		{tag.SOPInstanceUID, "SOPInstanceUID"},
		{tag.SOPClassUID, "SOPClassUID"},
		{tag.Modality, "Modality"},
		{tag.Manufacturer, "Manufacturer"},
		{tag.InstitutionName, "InstitutionName"},
		{tag.Rows, "Rows"},
		{tag.Columns, "Columns"},
		{tag.BitsAllocated, "BitsAllocated"},
		{tag.PhotometricInterpretation, "PhotometricInterpretation"},
	}

	for _, rt := range requiredTags {
		if _, err := ds.FindElementByTag(rt.tag); err != nil {
			t.Errorf("Tag %s (%v) should exist, got error: %v", rt.name, rt.tag, err)
		}
	}

	if got := stringValue(t, ds, tag.Modality); got != "DX" {
		t.Errorf("Modality = %q, want DX", got)
	}
	if got := stringValue(t, ds, tag.SOPClassUID); got != "1.2.840.10008.5.1.4.1.1.1.1" {
		t.Errorf("SOPClassUID = %q", got)
	}
	if got := stringValue(t, ds, tag.PhotometricInterpretation); got != "MONOCHROME2" {
		t.Errorf("PhotometricInterpretation = %q, want MONOCHROME2", got)
	}
	if got := stringValue(t, ds, tag.StudyInstanceUID); got != result.StudyUID {
		t.Errorf("StudyInstanceUID = %q, want %q", got, result.StudyUID)
	}
	if got := stringValue(t, ds, tag.PatientID); got != result.PatientID {
		t.Errorf("PatientID = %q, want %q", got, result.PatientID)
	}
	if got := stringValue(t, ds, tag.AccessionNumber); got != result.Accession {
		t.Errorf("AccessionNumber = %q, want %q", got, result.Accession)
	}
	if got := stringValue(t, ds, tag.StudyTime); !regexp.MustCompile(`^\d{6}\.\d{3}$`).MatchString(got) {
		t.Errorf("StudyTime = %q, want HHMMSS.FFF", got)
	}
}

// TestFabricate_MultiSeriesHierarchy checks UID sharing across a multi-series
// study: one study UID over all files, a distinct series UID per series.
func TestFabricate_MultiSeriesHierarchy(t *testing.T) {
	fab := newFabricator(t, 42)

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: t.TempDir(),
		Series: []fabricator.SeriesConfig{
			{Images: 2, Procedure: "PA-VIEW"},
			{Images: 2, Procedure: "LAT-VIEW"},
		},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	seriesUIDs := map[string]bool{}
	for _, sr := range result.Series {
		for _, file := range sr.Files {
			ds, err := dicom.ParseFile(file.Path, nil)
			if err != nil {
				t.Fatalf("Failed to parse %s: %v", file.Path, err)
			}
			if got := stringValue(t, ds, tag.StudyInstanceUID); got != result.StudyUID {
				t.Errorf("%s: StudyInstanceUID = %q, want %q", file.Filename, got, result.StudyUID)
			}
			if got := stringValue(t, ds, tag.SeriesInstanceUID); got != sr.SeriesUID {
				t.Errorf("%s: SeriesInstanceUID = %q, want %q", file.Filename, got, sr.SeriesUID)
			}
		}
		seriesUIDs[sr.SeriesUID] = true
	}
	if len(seriesUIDs) != 2 {
		t.Errorf("Expected 2 distinct series UIDs, got %d", len(seriesUIDs))
	}
}

// TestFabricate_MarkerConsistency checks that every image in a series carries
// the same marker list in its series description.
func TestFabricate_MarkerConsistency(t *testing.T) {
	fab := newFabricator(t, 42)

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: t.TempDir(),
		Series:    []fabricator.SeriesConfig{{Images: 3, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	sr := result.Series[0]
	markerText := strings.Join(sr.Markers, ", ")

	for _, file := range sr.Files {
		ds, err := dicom.ParseFile(file.Path, nil)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", file.Path, err)
		}
		desc := stringValue(t, ds, tag.SeriesDescription)
		if !strings.Contains(desc, markerText) {
			t.Errorf("%s: series description %q missing markers %q", file.Filename, desc, markerText)
		}
	}
}

// TestFabricate_FolderLayout checks the on-disk study/series layout.
func TestFabricate_FolderLayout(t *testing.T) {
	fab := newFabricator(t, 42)
	outputDir := t.TempDir()

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: outputDir,
		Series: []fabricator.SeriesConfig{
			{Images: 1, Procedure: "PA-VIEW"},
			{Images: 1, Procedure: "LAT-VIEW"},
		},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(result.StudyFolder), result.PatientID+"_") {
		t.Errorf("Study folder %q not keyed by patient ID", result.StudyFolder)
	}

	for i, want := range []string{"Series001_PA-VIEW", "Series002_LAT-VIEW"} {
		folder := filepath.Join(result.StudyFolder, want)
		if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			t.Errorf("Series folder %s should exist", want)
		}
		if filepath.Base(result.Series[i].Folder) != want {
			t.Errorf("Series %d folder = %q, want %q", i+1, result.Series[i].Folder, want)
		}
	}
}

// TestFabricate_PatientReuse runs two studies against the same registry with
// an explicit patient ID and verifies the patient is reused, not recreated.
func TestFabricate_PatientReuse(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	cfg := config.Default()
	regPath := filepath.Join(t.TempDir(), "patients.json")
	reg, err := registry.Open(regPath, cfg, rng, zerolog.Nop())
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	fab := fabricator.New(reg, cfg, rng, zerolog.Nop())

	first, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: t.TempDir(),
		Series:    []fabricator.SeriesConfig{{Images: 1, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("first CreateStudy failed: %v", err)
	}

	second, err := fab.CreateStudy(fabricator.StudyOptions{
		PatientID: first.PatientID,
		OutputDir: t.TempDir(),
		Series:    []fabricator.SeriesConfig{{Images: 1, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("second CreateStudy failed: %v", err)
	}

	if second.PatientID != first.PatientID || second.PatientName != first.PatientName {
		t.Errorf("Patient not reused: %q/%q vs %q/%q",
			first.PatientID, first.PatientName, second.PatientID, second.PatientName)
	}
	if reg.Len() != 1 {
		t.Errorf("Registry has %d patients, want 1", reg.Len())
	}
	rec, ok := reg.Get(first.PatientID)
	if !ok {
		t.Fatalf("patient %q missing from registry", first.PatientID)
	}
	if rec.StudyCount != 2 {
		t.Errorf("Study count = %d, want 2", rec.StudyCount)
	}
}

// TestFabricate_TagOverrides checks that custom tag values replace the
// defaults in the written files.
func TestFabricate_TagOverrides(t *testing.T) {
	fab := newFabricator(t, 42)

	overrides, err := dicomtag.ParseOverrides([]string{
		"InstitutionName=Custom Hospital",
		"BodyPartExamined=ABDOMEN",
		"PatientName=OVERRIDE^PATIENT",
		"SeriesDescription=Override Desc",
	})
	if err != nil {
		t.Fatalf("ParseOverrides failed: %v", err)
	}

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir:    t.TempDir(),
		Series:       []fabricator.SeriesConfig{{Images: 1, Procedure: "PA-VIEW"}},
		TagOverrides: overrides,
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	ds, err := dicom.ParseFile(result.Series[0].Files[0].Path, nil)
	if err != nil {
		t.Fatalf("Failed to parse DICOM file: %v", err)
	}

	if got := stringValue(t, ds, tag.InstitutionName); got != "Custom Hospital" {
		t.Errorf("InstitutionName = %q, want Custom Hospital", got)
	}
	if got := stringValue(t, ds, tag.BodyPartExamined); got != "ABDOMEN" {
		t.Errorf("BodyPartExamined = %q, want ABDOMEN", got)
	}
	if got := stringValue(t, ds, tag.PatientName); got != "OVERRIDE^PATIENT" {
		t.Errorf("PatientName = %q, want OVERRIDE^PATIENT", got)
	}

	// Overridden fields that the rendered image displays must match between
	// the written element and the result metadata the renderer consumed.
	sr := result.Series[0]
	if got := stringValue(t, ds, tag.SeriesDescription); got != sr.SeriesDescription {
		t.Errorf("SeriesDescription element = %q, rendered description = %q", got, sr.SeriesDescription)
	}
	wantDesc := "Override Desc - Image: " + strings.Join(sr.Markers, ", ")
	if sr.SeriesDescription != wantDesc {
		t.Errorf("SeriesDescription = %q, want %q", sr.SeriesDescription, wantDesc)
	}
	if result.PatientName != "OVERRIDE^PATIENT" {
		t.Errorf("result PatientName = %q, want OVERRIDE^PATIENT", result.PatientName)
	}
}

// TestFabricate_ManifestRoundTrip fabricates a study and checks the exported
// JSON manifest describes the files on disk.
func TestFabricate_ManifestRoundTrip(t *testing.T) {
	fab := newFabricator(t, 42)

	result, err := fab.CreateStudy(fabricator.StudyOptions{
		OutputDir: t.TempDir(),
		Series:    []fabricator.SeriesConfig{{Images: 2, Procedure: "PA-VIEW"}},
	})
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	manifestPath := filepath.Join(t.TempDir(), "manifest.json")
	if err := export.WriteJSON(manifestPath, []*fabricator.StudyResult{result}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	for _, file := range result.Series[0].Files {
		if !strings.Contains(string(data), file.Filename) {
			t.Errorf("Manifest missing file %s", file.Filename)
		}
	}
}
