// Package dicomtag maps user-facing tag names to DICOM tags so callers can
// override individual elements of fabricated files.
package dicomtag

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Override is a user-requested replacement value for one DICOM element.
type Override struct {
	Name  string
	Tag   tag.Tag
	Value string
}

// overridable maps lowercase tag names to the tags that may be overridden.
// Only string-valued elements of the fabricated dataset are listed; pixel
// geometry tags are owned by the synthesizer.
var overridable = map[string]struct {
	name string
	tag  tag.Tag
}{
	"patientname":            {"PatientName", tag.PatientName},
	"patientbirthdate":       {"PatientBirthDate", tag.PatientBirthDate},
	"patientsex":             {"PatientSex", tag.PatientSex},
	"studydescription":       {"StudyDescription", tag.StudyDescription},
	"referringphysicianname": {"ReferringPhysicianName", tag.ReferringPhysicianName},
	"seriesdescription":      {"SeriesDescription", tag.SeriesDescription},
	"bodypartexamined":       {"BodyPartExamined", tag.BodyPartExamined},
	"viewposition":           {"ViewPosition", tag.ViewPosition},
	"manufacturer":           {"Manufacturer", tag.Manufacturer},
	"manufacturermodelname":  {"ManufacturerModelName", tag.ManufacturerModelName},
	"institutionname":        {"InstitutionName", tag.InstitutionName},
	"stationname":            {"StationName", tag.StationName},
	"deviceserialnumber":     {"DeviceSerialNumber", tag.DeviceSerialNumber},
	"softwareversions":       {"SoftwareVersions", tag.SoftwareVersions},
}

// ParseOverrides converts "TagName=Value" strings into overrides. Lookup is
// case-insensitive; an unknown name produces an error carrying the closest
// known name as a suggestion.
func ParseOverrides(specs []string) ([]Override, error) {
	var out []Override
	for _, spec := range specs {
		name, value, found := strings.Cut(spec, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid tag override %q, expected 'TagName=Value'", spec)
		}

		key := strings.ToLower(strings.TrimSpace(name))
		info, ok := overridable[key]
		if !ok {
			if suggestion := closestName(key); suggestion != "" {
				return nil, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
			}
			return nil, fmt.Errorf("unknown tag %q", name)
		}

		out = append(out, Override{Name: info.name, Tag: info.tag, Value: value})
	}
	return out, nil
}

// closestName finds the closest known tag name by Levenshtein distance.
// Returns empty string if nothing is within distance 5.
func closestName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range overridable {
		distance := levenshtein(input, key)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = info.name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}
