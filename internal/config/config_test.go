package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.IDGeneration.Template != "PID{6digits}" {
		t.Errorf("default pattern = %q", cfg.IDGeneration.Template)
	}
	if cfg.IDGeneration.StartValue != 100000 {
		t.Errorf("default start value = %d", cfg.IDGeneration.StartValue)
	}
	if len(cfg.NameGeneration.CustomNames) != 7 {
		t.Errorf("expected 7 pool names, got %d", len(cfg.NameGeneration.CustomNames))
	}
	if cfg.Demographics.BirthYearRange != [2]int{1940, 2005} {
		t.Errorf("birth year range = %v", cfg.Demographics.BirthYearRange)
	}

	var total float64
	for _, w := range cfg.Demographics.SexDistribution {
		total += w
	}
	if total < 0.99 || total > 1.01 {
		t.Errorf("sex distribution weights sum to %f, want ~1.0", total)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.IDGeneration.Template = "MRN{8digits}"
	cfg.IDGeneration.StartValue = 5000
	cfg.NameGeneration.UseRealistic = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.IDGeneration.Template != "MRN{8digits}" {
		t.Errorf("loaded pattern = %q", loaded.IDGeneration.Template)
	}
	if loaded.IDGeneration.StartValue != 5000 {
		t.Errorf("loaded start value = %d", loaded.IDGeneration.StartValue)
	}
	if !loaded.NameGeneration.UseRealistic {
		t.Error("loaded use_realistic should be true")
	}
	if len(loaded.Demographics.Addresses) != 8 {
		t.Errorf("loaded addresses = %d, want 8", len(loaded.Demographics.Addresses))
	}
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "id_generation:\n  pattern: \"HOSP{7digits}\"\n  start_value: 1\n  increment: 1\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.IDGeneration.Template != "HOSP{7digits}" {
		t.Errorf("pattern = %q", cfg.IDGeneration.Template)
	}
	if cfg.Demographics.PhonePattern == "" {
		t.Error("phone pattern should fall back to default")
	}
	if len(cfg.NameGeneration.CustomNames) == 0 {
		t.Error("name pool should fall back to default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file should error")
	}
}
