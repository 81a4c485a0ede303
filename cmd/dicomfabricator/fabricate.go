package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmapit/dicomfabricator/internal/dicomtag"
	"github.com/flatmapit/dicomfabricator/internal/export"
	"github.com/flatmapit/dicomfabricator/internal/fabricator"
)

func fabricateCmd() *cobra.Command {
	var (
		patientName string
		patientID   string
		accession   string
		studyDesc   string
		studyDate   string
		outputDir   string
		seriesSpecs []string
		count       int
		manifest    string
		manifestCSV string
		tagSpecs    []string
	)

	cmd := &cobra.Command{
		Use:   "fabricate",
		Short: "Fabricate one or more synthetic studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			reg, cfg, rng, err := openRegistry(log)
			if err != nil {
				return err
			}

			series, err := parseSeriesSpecs(seriesSpecs)
			if err != nil {
				return err
			}

			overrides, err := dicomtag.ParseOverrides(tagSpecs)
			if err != nil {
				return err
			}

			if count < 1 {
				count = 1
			}
			if count > 1 && accession != "" {
				return fmt.Errorf("--accession cannot be combined with --count > 1")
			}

			fab := fabricator.New(reg, cfg, rng, log)

			var results []*fabricator.StudyResult
			for i := 0; i < count; i++ {
				result, err := fab.CreateStudy(fabricator.StudyOptions{
					PatientName:      patientName,
					PatientID:        patientID,
					Accession:        accession,
					StudyDescription: studyDesc,
					StudyDate:        studyDate,
					Series:           series,
					OutputDir:        outputDir,
					TagOverrides:     overrides,
				})
				if err != nil {
					return fmt.Errorf("fabricate study %d/%d: %w", i+1, count, err)
				}
				results = append(results, result)

				files := 0
				for _, sr := range result.Series {
					files += len(sr.Files)
				}
				fmt.Printf("Created study %s (%d series, %d files) in %s\n",
					result.Accession, len(result.Series), files, result.StudyFolder)
			}

			if manifest != "" {
				if err := export.WriteJSON(manifest, results); err != nil {
					return err
				}
				fmt.Printf("Wrote manifest: %s\n", manifest)
			}
			if manifestCSV != "" {
				if err := export.WriteCSV(manifestCSV, results); err != nil {
					return err
				}
				fmt.Printf("Wrote manifest: %s\n", manifestCSV)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patientName, "patient-name", "", "Patient name (DICOM LASTNAME^FIRSTNAME form)")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient ID (looked up in the registry, created if unknown)")
	cmd.Flags().StringVar(&accession, "accession", "", "Accession number (generated if not specified)")
	cmd.Flags().StringVar(&studyDesc, "study-description", "", "Study description")
	cmd.Flags().StringVar(&studyDate, "study-date", "", "Study date YYYYMMDD (today if not specified)")
	cmd.Flags().StringVar(&outputDir, "output", "dicom_output", "Output directory")
	cmd.Flags().StringArrayVar(&seriesSpecs, "series", nil,
		"Series spec 'procedure[:images[:modality[:description]]]' (repeatable, default PA-VIEW:1:DX)")
	cmd.Flags().IntVar(&count, "count", 1, "Number of studies to fabricate")
	cmd.Flags().StringVar(&manifest, "manifest", "", "Write a JSON manifest of generated files")
	cmd.Flags().StringVar(&manifestCSV, "manifest-csv", "", "Write a CSV manifest of generated files")
	cmd.Flags().StringArrayVar(&tagSpecs, "tag", nil, "Override a DICOM tag: 'TagName=Value' (repeatable)")

	return cmd
}

// parseSeriesSpecs converts "procedure[:images[:modality[:description]]]"
// strings into series configurations.
func parseSeriesSpecs(specs []string) ([]fabricator.SeriesConfig, error) {
	var out []fabricator.SeriesConfig
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 4)
		if parts[0] == "" {
			return nil, fmt.Errorf("series spec %q: missing procedure", spec)
		}
		sc := fabricator.SeriesConfig{Procedure: parts[0], Images: 1}
		if len(parts) > 1 && parts[1] != "" {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("series spec %q: bad image count %q", spec, parts[1])
			}
			sc.Images = n
		}
		if len(parts) > 2 && parts[2] != "" {
			sc.Modality = parts[2]
		}
		if len(parts) > 3 && parts[3] != "" {
			sc.SeriesDescription = parts[3]
		}
		out = append(out, sc)
	}
	return out, nil
}
