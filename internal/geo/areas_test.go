package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAreaTableLookups(t *testing.T) {
	table := NewAreaTable(map[string][]string{
		"Brooklyn":  {"Williamsburg", "Bushwick"},
		"Manhattan": {"Harlem"},
	})

	coarse, ok := table.CoarseFor("Williamsburg")
	if !ok || coarse != "Brooklyn" {
		t.Errorf("CoarseFor(Williamsburg) = (%q, %v), want (Brooklyn, true)", coarse, ok)
	}
	if _, ok := table.CoarseFor("Nowhere"); ok {
		t.Error("unknown area should not resolve")
	}

	if !table.IsCoarse("Brooklyn") {
		t.Error("Brooklyn should be coarse")
	}
	if table.IsCoarse("Williamsburg") {
		t.Error("Williamsburg should not be coarse")
	}

	if !table.Contains("Brooklyn", "Bushwick") {
		t.Error("Bushwick should belong to Brooklyn")
	}
	if table.Contains("Manhattan", "Bushwick") {
		t.Error("Bushwick should not belong to Manhattan")
	}

	if table.Len() != 3 {
		t.Errorf("Len = %d, want 3", table.Len())
	}
}

func TestAreaTableCaseInsensitive(t *testing.T) {
	table := NewAreaTable(map[string][]string{
		"Brooklyn": {"Williamsburg"},
	})

	if _, ok := table.CoarseFor("WILLIAMSBURG"); !ok {
		t.Error("lookups should ignore case")
	}
	if !table.IsCoarse("brooklyn") {
		t.Error("coarse lookup should ignore case")
	}
	if !table.Contains("BROOKLYN", "williamsburg") {
		t.Error("membership should ignore case on both sides")
	}
}

func TestLoadAreaTableEmbeddedDefault(t *testing.T) {
	table, err := LoadAreaTable("")
	if err != nil {
		t.Fatalf("load embedded table: %v", err)
	}
	if table.Len() == 0 {
		t.Fatal("embedded table should not be empty")
	}
	if coarse, ok := table.CoarseFor("Williamsburg"); !ok || coarse != "Brooklyn" {
		t.Errorf("CoarseFor(Williamsburg) = (%q, %v), want (Brooklyn, true)", coarse, ok)
	}
}

func TestLoadAreaTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.json")
	data := `{"Downtown": ["Riverside", "Old Town"]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadAreaTable(path)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if coarse, ok := table.CoarseFor("Riverside"); !ok || coarse != "Downtown" {
		t.Errorf("CoarseFor(Riverside) = (%q, %v), want (Downtown, true)", coarse, ok)
	}
}

func TestLoadAreaTableErrors(t *testing.T) {
	if _, err := LoadAreaTable("/nonexistent/areas.json"); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAreaTable(path); err == nil {
		t.Error("malformed JSON should error")
	}
}

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Lat: 40.7081, Lng: -73.9571}
	if got := c.String(); got != "40.708100,-73.957100" {
		t.Errorf("String() = %q", got)
	}
}
