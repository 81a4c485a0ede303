// Package export writes fabrication manifests describing the studies
// produced in a run, for downstream tooling that needs to locate or verify
// the generated files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/flatmapit/dicomfabricator/internal/fabricator"
)

// WriteJSON writes the study results as an indented JSON array.
func WriteJSON(path string, studies []*fabricator.StudyResult) error {
	data, err := json.MarshalIndent(studies, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"study_uid", "patient_id", "patient_name", "accession", "study_description",
	"series_number", "series_uid", "modality", "series_description", "markers",
	"instance_number", "filepath",
}

// WriteCSV writes the study results as a flat CSV, one row per generated
// file.
func WriteCSV(path string, studies []*fabricator.StudyResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}

	for _, study := range studies {
		for _, series := range study.Series {
			for _, file := range series.Files {
				row := []string{
					study.StudyUID,
					study.PatientID,
					study.PatientName,
					study.Accession,
					study.StudyDescription,
					strconv.Itoa(series.SeriesNumber),
					series.SeriesUID,
					series.Modality,
					series.SeriesDescription,
					strings.Join(series.Markers, "|"),
					strconv.Itoa(file.InstanceNumber),
					file.Path,
				}
				if err := w.Write(row); err != nil {
					return fmt.Errorf("write manifest row: %w", err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	return nil
}
