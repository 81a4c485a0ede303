package fabricator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/flatmapit/dicomfabricator/internal/dicomtag"
	"github.com/flatmapit/dicomfabricator/internal/imaging"
	"github.com/flatmapit/dicomfabricator/internal/registry"
	"github.com/flatmapit/dicomfabricator/internal/uid"
)

// Digital X-Ray For Presentation.
const dxSOPClassUID = "1.2.840.10008.5.1.4.1.1.1.1"

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func writeDatasetToFile(filename string, ds dicom.Dataset) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return dicom.Write(f, ds)
}

type instanceParams struct {
	patient           *registry.Record
	patientName       string
	accession         string
	studyDescription  string
	studyDate         string
	studyUID          string
	seriesUID         string
	seriesNumber      int
	instanceNumber    int
	modality          string
	seriesDescription string
	markers           []string
	outputDir         string
	tagOverrides      []dicomtag.Override
}

// applyOverrides swaps the value of any element named by an override,
// appending elements the dataset does not already carry.
func applyOverrides(ds *dicom.Dataset, overrides []dicomtag.Override) {
	for _, ov := range overrides {
		replaced := false
		for i, elem := range ds.Elements {
			if elem.Tag == ov.Tag {
				ds.Elements[i] = mustNewElement(ov.Tag, []string{ov.Value})
				replaced = true
				break
			}
		}
		if !replaced {
			ds.Elements = append(ds.Elements, mustNewElement(ov.Tag, []string{ov.Value}))
		}
	}
}

// createInstance renders one synthetic image and writes it as a DICOM file.
func (f *Fabricator) createInstance(p instanceParams) (FileResult, error) {
	now := time.Now()
	sopInstanceUID := uid.New()
	studyTime := now.Format("150405.000")

	img, _, err := imaging.Render(imageWidth, imageHeight, imaging.Metadata{
		PatientName:       p.patientName,
		PatientID:         p.patient.PatientID,
		AccessionNumber:   p.accession,
		StudyInstanceUID:  p.studyUID,
		SeriesInstanceUID: p.seriesUID,
		SOPInstanceUID:    sopInstanceUID,
		StudyDate:         p.studyDate,
		StudyTime:         studyTime,
		Modality:          p.modality,
		StudyDescription:  p.studyDescription,
		SeriesDescription: p.seriesDescription,
	}, p.markers, p.seriesNumber, p.instanceNumber, f.rng)
	if err != nil {
		return FileResult{}, fmt.Errorf("render image: %w", err)
	}

	ds := dicom.Dataset{
		Elements: []*dicom.Element{
			// File meta information (must be first)
			mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
			// Patient module
			mustNewElement(tag.PatientName, []string{p.patientName}),
			mustNewElement(tag.PatientID, []string{p.patient.PatientID}),
			mustNewElement(tag.PatientBirthDate, []string{p.patient.BirthDate}),
			mustNewElement(tag.PatientSex, []string{p.patient.Sex}),
			mustNewElement(tag.PatientAge, []string{patientAge(p.patient.BirthDate, now)}),
			// Study module
			mustNewElement(tag.StudyInstanceUID, []string{p.studyUID}),
			mustNewElement(tag.StudyDate, []string{p.studyDate}),
			mustNewElement(tag.StudyTime, []string{studyTime}),
			mustNewElement(tag.StudyID, []string{fmt.Sprintf("STU%04d", f.rng.IntN(9000)+1000)}),
			mustNewElement(tag.AccessionNumber, []string{p.accession}),
			mustNewElement(tag.StudyDescription, []string{p.studyDescription}),
			mustNewElement(tag.ReferringPhysicianName, []string{"TEST^DOCTOR"}),
			// Series module
			mustNewElement(tag.SeriesInstanceUID, []string{p.seriesUID}),
			mustNewElement(tag.SeriesNumber, []string{fmt.Sprintf("%d", p.seriesNumber)}),
			mustNewElement(tag.SeriesDescription, []string{p.seriesDescription}),
			mustNewElement(tag.Modality, []string{p.modality}),
			// Equipment module
			mustNewElement(tag.Manufacturer, []string{"DICOM Fabricator"}),
			mustNewElement(tag.InstitutionName, []string{"Test Hospital"}),
			mustNewElement(tag.StationName, []string{"TEST_STATION"}),
			mustNewElement(tag.ManufacturerModelName, []string{"Fabricator v1.0"}),
			mustNewElement(tag.DeviceSerialNumber, []string{"FAB12345"}),
			mustNewElement(tag.SoftwareVersions, []string{"1.0.0"}),
			// Image module
			mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", p.instanceNumber)}),
			mustNewElement(tag.ImageType, []string{"ORIGINAL", "PRIMARY"}),
			mustNewElement(tag.ContentDate, []string{now.Format("20060102")}),
			mustNewElement(tag.ContentTime, []string{now.Format("150405.000")}),
			mustNewElement(tag.Rows, []int{imageHeight}),
			mustNewElement(tag.Columns, []int{imageWidth}),
			mustNewElement(tag.BitsAllocated, []int{8}),
			mustNewElement(tag.BitsStored, []int{8}),
			mustNewElement(tag.HighBit, []int{7}),
			mustNewElement(tag.PixelRepresentation, []int{0}),
			mustNewElement(tag.SamplesPerPixel, []int{1}),
			mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
			// DX module
			mustNewElement(tag.PresentationIntentType, []string{"FOR PRESENTATION"}),
			mustNewElement(tag.BodyPartExamined, []string{"CHEST"}),
			mustNewElement(tag.ViewPosition, []string{"PA"}),
			// SOP common
			mustNewElement(tag.SOPClassUID, []string{dxSOPClassUID}),
			mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
		},
	}

	applyOverrides(&ds, p.tagOverrides)

	nativeFrame := frame.NewNativeFrame[uint8](8, imageHeight, imageWidth, imageWidth*imageHeight, 1)
	for i, v := range img.Pix {
		nativeFrame.RawData[i] = v
	}

	pixelDataInfo := dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}
	ds.Elements = append(ds.Elements, mustNewElement(tag.PixelData, pixelDataInfo))

	filename := fmt.Sprintf("%s_%s_%s_S%03d_I%03d_%s.dcm",
		p.modality, p.patient.PatientID, p.accession,
		p.seriesNumber, p.instanceNumber, now.Format("20060102_150405"))
	path := filepath.Join(p.outputDir, filename)

	if err := writeDatasetToFile(path, ds); err != nil {
		return FileResult{}, fmt.Errorf("write DICOM file %s: %w", path, err)
	}

	return FileResult{
		Filename:       filename,
		Path:           path,
		InstanceNumber: p.instanceNumber,
	}, nil
}

// patientAge formats the DICOM age string as the plain year difference, with
// no month or day adjustment. Unparseable dates yield "000Y".
func patientAge(birthDate string, now time.Time) string {
	born, err := time.Parse("20060102", birthDate)
	if err != nil {
		return "000Y"
	}
	years := now.Year() - born.Year()
	if years < 0 {
		years = 0
	}
	return fmt.Sprintf("%03dY", years)
}
