package geo

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed areas.json
var defaultTableFS embed.FS

// AreaTable maps fine-grained neighborhood names to their coarse label
// (borough). Listings sourced from some feeds only carry the coarse label,
// so the matcher needs both directions of the mapping.
//
// The table is data, not code: it is loaded from a JSON file of the shape
// {"Brooklyn": ["Williamsburg", "Bushwick", ...], ...} so coverage can be
// extended without a release.
type AreaTable struct {
	coarseOf map[string]string   // lowercased area -> canonical coarse label
	areasIn  map[string][]string // lowercased coarse label -> canonical areas
}

// NewAreaTable builds a table from a coarse-label -> areas mapping.
func NewAreaTable(m map[string][]string) *AreaTable {
	t := &AreaTable{
		coarseOf: make(map[string]string),
		areasIn:  make(map[string][]string, len(m)),
	}
	for coarse, areas := range m {
		key := strings.ToLower(coarse)
		t.areasIn[key] = append(t.areasIn[key], areas...)
		for _, a := range areas {
			t.coarseOf[strings.ToLower(a)] = coarse
		}
	}
	return t
}

// LoadAreaTable reads a JSON area table from path. An empty path loads the
// embedded default table.
func LoadAreaTable(path string) (*AreaTable, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = defaultTableFS.ReadFile("areas.json")
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read area table: %w", err)
	}

	var m map[string][]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse area table: %w", err)
	}
	return NewAreaTable(m), nil
}

// CoarseFor returns the coarse label a fine-grained area belongs to.
func (t *AreaTable) CoarseFor(area string) (string, bool) {
	coarse, ok := t.coarseOf[strings.ToLower(area)]
	return coarse, ok
}

// IsCoarse reports whether label is a coarse (borough-level) label.
func (t *AreaTable) IsCoarse(label string) bool {
	_, ok := t.areasIn[strings.ToLower(label)]
	return ok
}

// Contains reports whether area belongs to the given coarse label.
func (t *AreaTable) Contains(coarse, area string) bool {
	got, ok := t.coarseOf[strings.ToLower(area)]
	return ok && strings.EqualFold(got, coarse)
}

// Len returns the number of fine-grained areas in the table.
func (t *AreaTable) Len() int { return len(t.coarseOf) }
