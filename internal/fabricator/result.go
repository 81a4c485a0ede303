package fabricator

import "github.com/flatmapit/dicomfabricator/internal/dicomtag"

// SeriesConfig describes one series to fabricate within a study.
type SeriesConfig struct {
	// Images is the number of instances to produce.
	Images int `yaml:"images" json:"images"`
	// Procedure is the procedure code embedded in folder names and the
	// series description (e.g. "PA-VIEW").
	Procedure string `yaml:"procedure" json:"procedure"`
	// Modality defaults to "DX" when empty.
	Modality string `yaml:"modality,omitempty" json:"modality,omitempty"`
	// SeriesDescription overrides the composed default description.
	SeriesDescription string `yaml:"series_description,omitempty" json:"series_description,omitempty"`
}

// StudyOptions are the inputs to one fabrication call.
type StudyOptions struct {
	PatientName      string
	PatientID        string
	Accession        string
	StudyDescription string
	// StudyDate, when set, is normalized to exactly 8 characters; empty
	// means "now".
	StudyDate string
	Series    []SeriesConfig
	OutputDir string
	// TagOverrides replace individual elements in every produced file.
	TagOverrides []dicomtag.Override
}

// FileResult describes one produced instance file.
type FileResult struct {
	Filename       string `json:"filename"`
	Path           string `json:"filepath"`
	InstanceNumber int    `json:"instance_number"`
}

// SeriesResult describes one fabricated series.
type SeriesResult struct {
	SeriesNumber int    `json:"series_number"`
	SeriesUID    string `json:"series_uid"`
	Procedure    string `json:"procedure"`
	Modality     string `json:"modality"`
	// SeriesDescription is the final composed description, marker list
	// included, exactly as written into every file of the series.
	SeriesDescription string `json:"series_description"`
	// Markers is the ordered marker set shared by every file in the series.
	Markers []string     `json:"markers"`
	Folder  string       `json:"folder"`
	Files   []FileResult `json:"files"`
}

// StudyResult is the handoff surface returned to callers: the full
// identifier hierarchy and every file produced.
type StudyResult struct {
	StudyUID         string         `json:"study_uid"`
	StudyFolder      string         `json:"study_folder"`
	PatientName      string         `json:"patient_name"`
	PatientID        string         `json:"patient_id"`
	Accession        string         `json:"accession"`
	StudyDescription string         `json:"study_desc"`
	Series           []SeriesResult `json:"series"`
}
