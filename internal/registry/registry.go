// Package registry manages persistent synthetic patient records.
//
// The registry is a whole-file JSON store keyed by patient identifier:
// loaded on open, saved in full after every mutation. Access is guarded by a
// single mutex so one Registry value can be shared by concurrent callers.
package registry

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatmapit/dicomfabricator/internal/config"
	"github.com/flatmapit/dicomfabricator/internal/identifier"
)

// maxIDAttempts bounds the uniqueness retry loop when minting identifiers.
// An exhausted pattern space surfaces as a GenerationError instead of
// spinning forever.
const maxIDAttempts = 10000

// Record is one synthetic patient.
type Record struct {
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	BirthDate   string `json:"birth_date"`
	Sex         string `json:"sex"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	CreatedDate string `json:"created_date"`
	LastUsed    string `json:"last_used"`
	StudyCount  int    `json:"study_count"`
}

// Resolution tags how a patient reference was satisfied.
type Resolution int

const (
	// ResolutionFound means the requested identifier matched an existing record.
	ResolutionFound Resolution = iota
	// ResolutionGenerated means a new record was created with a minted identifier.
	ResolutionGenerated
	// ResolutionGeneratedFallback means the requested identifier was unknown
	// and a new record was synthesized using it anyway.
	ResolutionGeneratedFallback
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case ResolutionFound:
		return "Found"
	case ResolutionGeneratedFallback:
		return "GeneratedFallback"
	default:
		return "Generated"
	}
}

// GenerationError reports an exhausted identifier pattern space.
type GenerationError struct {
	Pattern  string
	Attempts int
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("could not mint a unique patient ID from pattern %q after %d attempts", e.Pattern, e.Attempts)
}

// Stats summarizes the registry contents.
type Stats struct {
	TotalPatients        int
	TotalStudies         int
	MostRecentPatient    string
	MostUsedPatient      string
	AvgStudiesPerPatient float64
}

// Registry owns the patient record set and its backing store.
type Registry struct {
	path  string
	cfg   *config.Config
	idGen *identifier.Generator
	rng   *rand.Rand
	log   zerolog.Logger

	mu       sync.Mutex
	patients map[string]*Record
}

// Open loads (or initializes) a registry backed by the JSON file at path.
// If rng is nil a time-seeded source is used.
func Open(path string, cfg *config.Config, rng *rand.Rand, log zerolog.Logger) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}

	r := &Registry{
		path:     path,
		cfg:      cfg,
		idGen:    identifier.New(cfg.IDGeneration, rng),
		rng:      rng,
		log:      log,
		patients: make(map[string]*Record),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.patients); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	return r, nil
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patients)
}

// Get returns the record for the given identifier.
func (r *Registry) Get(patientID string) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.patients[patientID]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Resolve satisfies a patient reference for a fabrication call.
//
// A known identifier returns the existing record untouched. An unknown
// identifier logs a warning and falls back to generating a fresh record that
// keeps the requested identifier. An empty identifier mints a new one.
func (r *Registry) Resolve(patientName, patientID string) (*Record, Resolution, error) {
	if patientID != "" {
		if rec, ok := r.Get(patientID); ok {
			return rec, ResolutionFound, nil
		}
		r.log.Warn().Str("patient_id", patientID).Msg("patient ID not found, generating new patient")
		rec, err := r.Generate(patientName, patientID)
		if err != nil {
			return nil, ResolutionGeneratedFallback, err
		}
		return rec, ResolutionGeneratedFallback, nil
	}

	rec, err := r.Generate(patientName, "")
	if err != nil {
		return nil, ResolutionGenerated, err
	}
	return rec, ResolutionGenerated, nil
}

// Generate creates a new patient record and persists the registry.
//
// When patientID is empty an identifier is minted from the configured
// pattern, seeded at the current registry size and advanced past collisions
// up to maxIDAttempts. When patientName is empty one is synthesized from the
// configured pool (or realistic pools when enabled).
func (r *Registry) Generate(patientName, patientID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patientID == "" {
		var err error
		patientID, err = r.mintIDLocked()
		if err != nil {
			return nil, err
		}
	} else if _, exists := r.patients[patientID]; exists {
		return nil, fmt.Errorf("patient %s already exists", patientID)
	}

	sex := r.selectSex()
	if patientName == "" {
		patientName = r.generateName(sex)
	}

	now := time.Now().Format(time.RFC3339)
	rec := &Record{
		PatientID:   patientID,
		PatientName: patientName,
		BirthDate:   r.generateBirthDate(),
		Sex:         sex,
		Address:     r.cfg.Demographics.Addresses[r.rng.IntN(len(r.cfg.Demographics.Addresses))],
		Phone:       identifier.ExpandRandom(r.cfg.Demographics.PhonePattern, r.rng),
		CreatedDate: now,
		LastUsed:    now,
		StudyCount:  0,
	}

	r.patients[patientID] = rec
	if err := r.saveLocked(); err != nil {
		return nil, err
	}

	cp := *rec
	return &cp, nil
}

// mintIDLocked mints a unique identifier. Caller holds the mutex.
func (r *Registry) mintIDLocked() (string, error) {
	counter := int64(len(r.patients))
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := r.idGen.Generate(counter)
		if _, taken := r.patients[id]; !taken {
			return id, nil
		}
		counter++
	}
	return "", &GenerationError{Pattern: r.idGen.Pattern().Template, Attempts: maxIDAttempts}
}

// UpdateUsage stamps the record as used now, increments its study counter by
// one and persists.
func (r *Registry) UpdateUsage(patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.patients[patientID]
	if !ok {
		return fmt.Errorf("patient %s not found", patientID)
	}
	rec.LastUsed = time.Now().Format(time.RFC3339)
	rec.StudyCount++

	return r.saveLocked()
}

// Search returns records whose identifier, name or address contains the
// query, case-insensitively.
func (r *Registry) Search(query string) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	query = strings.ToLower(query)
	var matches []*Record
	for _, rec := range r.patients {
		if strings.Contains(strings.ToLower(rec.PatientID), query) ||
			strings.Contains(strings.ToLower(rec.PatientName), query) ||
			strings.Contains(strings.ToLower(rec.Address), query) {
			cp := *rec
			matches = append(matches, &cp)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].PatientID < matches[j].PatientID })
	return matches
}

// List returns records sorted by last-used, most recent first. A limit of 0
// returns everything.
func (r *Registry) List(limit int) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*Record, 0, len(r.patients))
	for _, rec := range r.patients {
		cp := *rec
		records = append(records, &cp)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].LastUsed > records[j].LastUsed })

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Delete removes a record and persists. Returns false if the identifier is
// unknown.
func (r *Registry) Delete(patientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patientID]; !ok {
		return false, nil
	}
	delete(r.patients, patientID)
	if err := r.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Stats computes registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{TotalPatients: len(r.patients)}
	if len(r.patients) == 0 {
		return s
	}

	var mostRecent, mostUsed *Record
	for _, rec := range r.patients {
		s.TotalStudies += rec.StudyCount
		if mostRecent == nil || rec.CreatedDate > mostRecent.CreatedDate {
			mostRecent = rec
		}
		if mostUsed == nil || rec.StudyCount > mostUsed.StudyCount {
			mostUsed = rec
		}
	}
	s.MostRecentPatient = mostRecent.PatientID
	s.MostUsedPatient = mostUsed.PatientID
	s.AvgStudiesPerPatient = float64(s.TotalStudies) / float64(len(r.patients))

	return s
}

// saveLocked writes the whole registry to disk. Caller holds the mutex.
func (r *Registry) saveLocked() error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create registry directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(r.patients, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// generateName synthesizes a patient name for the given sex.
func (r *Registry) generateName(sex string) string {
	if r.cfg.NameGeneration.UseRealistic {
		return realisticName(sex, r.rng)
	}
	pool := r.cfg.NameGeneration.CustomNames
	n := pool[r.rng.IntN(len(pool))]
	return n.Last + "^" + n.First
}

// generateBirthDate returns an 8-digit YYYYMMDD date inside the configured
// year range. Days stop at 28 so every month is valid.
func (r *Registry) generateBirthDate() string {
	yr := r.cfg.Demographics.BirthYearRange
	year := yr[0] + r.rng.IntN(yr[1]-yr[0]+1)
	month := r.rng.IntN(12) + 1
	day := r.rng.IntN(28) + 1
	return fmt.Sprintf("%04d%02d%02d", year, month, day)
}

// selectSex draws a sex code from the configured weighted distribution.
// Keys are visited in sorted order so a seeded RNG gives stable draws.
func (r *Registry) selectSex() string {
	dist := r.cfg.Demographics.SexDistribution
	keys := make([]string, 0, len(dist))
	var total float64
	for k, w := range dist {
		keys = append(keys, k)
		total += w
	}
	sort.Strings(keys)

	target := r.rng.Float64() * total
	var cumulative float64
	for _, k := range keys {
		cumulative += dist[k]
		if target < cumulative {
			return k
		}
	}
	return keys[len(keys)-1]
}
