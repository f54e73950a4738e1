package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	if got := len(c.All()); got != 6 {
		t.Fatalf("Builtin() has %d symptoms, want 6", got)
	}
	if c.Names()[0] != "Heartburn" {
		t.Errorf("first builtin = %q", c.Names()[0])
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "symptoms.yaml")

	yamlContent := `---
symptoms:
  - name: Mide Yanması
    label: Heartburn
  - name: Şişkinlik
  - name: mide yanması
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	c, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "Mide Yanması" || got[1] != "Şişkinlik" {
		t.Errorf("Names() = %v", got)
	}
	if c.All()[0].Label != "Heartburn" {
		t.Errorf("label lost: %+v", c.All()[0])
	}
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(tmpDir, "nope.yaml")},
		{"bad yaml", write("bad.yaml", "symptoms: [\n")},
		{"empty list", write("empty.yaml", "symptoms: []\n")},
		{"nameless", write("nameless.yaml", "symptoms:\n  - label: x\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Errorf("Load(%s) should fail", tt.path)
			}
		})
	}
}

func TestLoadEmptyPathIsBuiltin(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if len(c.All()) != len(Builtin().All()) {
		t.Error("Load(\"\") should return the builtin catalog")
	}
}

func TestCanonical(t *testing.T) {
	c := Builtin()
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"heartburn", "Heartburn", true},
		{"  COUGH ", "Cough", true},
		{"Hiccups", "Hiccups", false},
	}
	for _, tt := range tests {
		got, ok := c.Canonical(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Canonical(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHolder(t *testing.T) {
	h := NewHolder(Builtin())
	if len(h.Get().All()) != 6 {
		t.Fatalf("Get() = %v", h.Get().Names())
	}
	c, err := New([]Symptom{{Name: "Hiccups"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.Set(c)
	if got := h.Get().Names(); len(got) != 1 || got[0] != "Hiccups" {
		t.Errorf("after Set, Names() = %v", got)
	}
}
