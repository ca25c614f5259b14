package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8765" {
		t.Errorf("Expected default port 8765, got %s", cfg.Port)
	}
	if cfg.EnergyThreshold != 40 {
		t.Errorf("Expected default energy threshold 40, got %d", cfg.EnergyThreshold)
	}
	if cfg.DatabasePath != "inkmemory.db" {
		t.Errorf("Expected default database path, got %s", cfg.DatabasePath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENERGY_THRESHOLD", "55")
	t.Setenv("ANALYSIS_RATE_PER_SECOND", "0.5")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.EnergyThreshold != 55 {
		t.Errorf("Expected energy threshold 55, got %d", cfg.EnergyThreshold)
	}
	if cfg.AnalysisRate != 0.5 {
		t.Errorf("Expected analysis rate 0.5, got %f", cfg.AnalysisRate)
	}
}

func TestLoadPersonas_EmptyPathUsesDefaults(t *testing.T) {
	personas, err := LoadPersonas("")
	if err != nil {
		t.Fatalf("LoadPersonas failed: %v", err)
	}
	if len(personas) == 0 {
		t.Fatal("Expected default personas")
	}
}

func TestLoadPersonas_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - id: holder
    name: Holder
    system_prompt: Sit with the feeling.
    icon: "🫧"
    color: "#88aacc"
    enabled: true
  - id: mirror
    name: Mirror
    system_prompt: Reflect the words back.
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write personas file: %v", err)
	}

	personas, err := LoadPersonas(path)
	if err != nil {
		t.Fatalf("LoadPersonas failed: %v", err)
	}
	if len(personas) != 2 {
		t.Fatalf("Expected 2 personas, got %d", len(personas))
	}
	if personas[0].ID != "holder" || personas[0].Name != "Holder" {
		t.Errorf("Expected holder first, got %+v", personas[0])
	}
	if personas[1].Enabled {
		t.Error("Expected mirror disabled")
	}
}

func TestLoadPersonas_MissingFile(t *testing.T) {
	if _, err := LoadPersonas(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
}

func TestLoadPersonas_NoID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := "personas:\n  - name: Nameless\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write personas file: %v", err)
	}

	if _, err := LoadPersonas(path); err == nil {
		t.Fatal("Expected error for persona without id, got nil")
	}
}
