// Package fabricator orchestrates the fabrication of complete synthetic
// radiology studies: patient resolution, the study/series/instance identifier
// hierarchy, the on-disk folder layout and one rendered DICOM file per
// instance.
package fabricator

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/flatmapit/dicomfabricator/internal/config"
	"github.com/flatmapit/dicomfabricator/internal/dicomtag"
	"github.com/flatmapit/dicomfabricator/internal/identifier"
	"github.com/flatmapit/dicomfabricator/internal/imaging"
	"github.com/flatmapit/dicomfabricator/internal/registry"
	"github.com/flatmapit/dicomfabricator/internal/uid"
)

const (
	defaultModality  = "DX"
	defaultStudyDesc = "Test Study"

	imageWidth  = 1024
	imageHeight = 768
)

// Fabricator produces synthetic studies against one patient registry.
type Fabricator struct {
	registry *registry.Registry
	cfg      *config.Config
	rng      *rand.Rand
	log      zerolog.Logger
}

// New creates a Fabricator. If rng is nil a time-seeded source is used.
func New(reg *registry.Registry, cfg *config.Config, rng *rand.Rand, log zerolog.Logger) *Fabricator {
	if cfg == nil {
		cfg = config.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Fabricator{registry: reg, cfg: cfg, rng: rng, log: log}
}

// GenerateAccession synthesizes an accession number. With no configured
// pattern the default is "ACC" + current date + a 4-digit random suffix; a
// configured pattern is rendered with the current year as prefix.
func (f *Fabricator) GenerateAccession() string {
	now := time.Now()
	if p := f.cfg.Accession.Pattern; p != "" {
		gen := identifier.New(identifier.Pattern{
			Template:   p,
			StartValue: 1,
			Increment:  1,
			Prefix:     fmt.Sprintf("%d", now.Year()),
		}, f.rng)
		return gen.Generate(f.rng.Int64N(9999999))
	}
	return fmt.Sprintf("ACC%s%d", now.Format("20060102"), f.rng.IntN(9000)+1000)
}

// CreateStudy fabricates one full study and returns the structured result
// describing every file produced.
//
// Sibling files already written are left on disk when a later instance
// fails; cleanup is the caller's concern.
func (f *Fabricator) CreateStudy(opts StudyOptions) (*StudyResult, error) {
	series := opts.Series
	if len(series) == 0 {
		series = []SeriesConfig{{Images: 1, Procedure: "PA-VIEW"}}
	}

	patient, resolution, err := f.registry.Resolve(opts.PatientName, opts.PatientID)
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	f.log.Debug().
		Str("patient_id", patient.PatientID).
		Stringer("resolution", resolution).
		Msg("patient resolved")

	if err := f.registry.UpdateUsage(patient.PatientID); err != nil {
		return nil, fmt.Errorf("update patient usage: %w", err)
	}

	accession := opts.Accession
	if accession == "" {
		accession = f.GenerateAccession()
	}
	studyDesc := opts.StudyDescription
	if studyDesc == "" {
		studyDesc = defaultStudyDesc
	}

	// Overrides for fields the rendered image displays are folded in here,
	// ahead of rendering, so the pixels and the elements carry the same
	// values. The remainder is applied element-wise per instance. A series
	// description override goes through composeSeriesDescription to keep
	// the marker list on the element.
	patientName := patient.PatientName
	var seriesDescOverride string
	var elementOverrides []dicomtag.Override
	for _, ov := range opts.TagOverrides {
		switch ov.Tag {
		case tag.PatientName:
			patientName = ov.Value
		case tag.StudyDescription:
			studyDesc = ov.Value
		case tag.SeriesDescription:
			seriesDescOverride = ov.Value
		default:
			elementOverrides = append(elementOverrides, ov)
		}
	}

	now := time.Now()
	studyDate := normalizeStudyDate(opts.StudyDate, now)
	studyUID := uid.New()

	studyFolder := filepath.Join(opts.OutputDir,
		fmt.Sprintf("%s_%s_%s", patient.PatientID, now.Format("20060102"), now.Format("150405")))
	if err := os.MkdirAll(studyFolder, 0755); err != nil {
		return nil, fmt.Errorf("create study folder: %w", err)
	}

	result := &StudyResult{
		StudyUID:         studyUID,
		StudyFolder:      studyFolder,
		PatientName:      patientName,
		PatientID:        patient.PatientID,
		Accession:        accession,
		StudyDescription: studyDesc,
	}

	for idx, sc := range series {
		seriesNumber := idx + 1
		seriesUID := uid.New()
		modality := sc.Modality
		if modality == "" {
			modality = defaultModality
		}

		// One marker set per series, reused by every image in it.
		markers := imaging.SelectMarkers(f.rng)
		explicitDesc := sc.SeriesDescription
		if seriesDescOverride != "" {
			explicitDesc = seriesDescOverride
		}
		seriesDesc := composeSeriesDescription(explicitDesc, modality, sc.Procedure, markers)

		seriesFolder := filepath.Join(studyFolder, fmt.Sprintf("Series%03d_%s", seriesNumber, sc.Procedure))
		if err := os.MkdirAll(seriesFolder, 0755); err != nil {
			return nil, fmt.Errorf("create series %d folder: %w", seriesNumber, err)
		}

		sr := SeriesResult{
			SeriesNumber:      seriesNumber,
			SeriesUID:         seriesUID,
			Procedure:         sc.Procedure,
			Modality:          modality,
			SeriesDescription: seriesDesc,
			Markers:           markers,
			Folder:            seriesFolder,
		}

		imageCount := sc.Images
		if imageCount < 1 {
			imageCount = 1
		}
		for instance := 1; instance <= imageCount; instance++ {
			file, err := f.createInstance(instanceParams{
				patient:           patient,
				patientName:       patientName,
				accession:         accession,
				studyDescription:  studyDesc,
				studyDate:         studyDate,
				studyUID:          studyUID,
				seriesUID:         seriesUID,
				seriesNumber:      seriesNumber,
				instanceNumber:    instance,
				modality:          modality,
				seriesDescription: seriesDesc,
				markers:           markers,
				outputDir:         seriesFolder,
				tagOverrides:      elementOverrides,
			})
			if err != nil {
				return nil, fmt.Errorf("create series %d instance %d: %w", seriesNumber, instance, err)
			}
			sr.Files = append(sr.Files, file)
		}

		result.Series = append(result.Series, sr)
	}

	f.log.Info().
		Str("study_uid", studyUID).
		Str("patient_id", patient.PatientID).
		Str("accession", accession).
		Int("series", len(result.Series)).
		Msg("study fabricated")

	return result, nil
}

// composeSeriesDescription builds the series description carrying the marker
// list. An explicit description gets the marker text appended; the default
// is "<modality> <procedure> Image: <markers>".
func composeSeriesDescription(explicit, modality, procedure string, markers []string) string {
	markerText := "Image: " + strings.Join(markers, ", ")
	if explicit != "" {
		return explicit + " - " + markerText
	}

	parts := []string{modality}
	if procedure != "" {
		parts = append(parts, procedure)
	}
	parts = append(parts, markerText)
	return strings.Join(parts, " ")
}

// normalizeStudyDate forces a supplied date to exactly 8 characters,
// truncating long values and right-padding short ones with zeros. An empty
// date means "now".
func normalizeStudyDate(date string, now time.Time) string {
	if date == "" {
		return now.Format("20060102")
	}
	if len(date) > 8 {
		return date[:8]
	}
	return date + strings.Repeat("0", 8-len(date))
}
