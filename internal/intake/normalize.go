package intake

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labworks/intake-backend/internal/normalization"
)

// HoleGeometry describes one hole or notch in a hollow block specimen.
type HoleGeometry struct {
	Kind   string `json:"kind"`
	Length string `json:"l"`
	Width  string `json:"w"`
	Depth  string `json:"depth"`
}

// SetInput is one raw set object exactly as it arrives in the receipt
// payload. SerialNumbers and AssignedTests are kept raw because callers send
// them either as native arrays or as encoded strings; NormalizeSet is the
// single place that resolves both forms.
type SetInput struct {
	Category      string          `json:"category"`
	Class         string          `json:"class"`
	Length        string          `json:"l"`
	Width         string          `json:"w"`
	Height        string          `json:"h"`
	Diameter      string          `json:"d"`
	Thickness     string          `json:"t"`
	NumPerSqm     string          `json:"numPerSqm"`
	BlockType     string          `json:"blockType"`
	Holes         []HoleGeometry  `json:"holes"`
	DateOfCast    string          `json:"dateOfCast"`
	DateOfTest    string          `json:"dateOfTest"`
	Age           string          `json:"age"`
	AreaOfUse     string          `json:"areaOfUse"`
	SerialNumbers json.RawMessage `json:"serialNumbers"`
	AssignedTests json.RawMessage `json:"assignedTests"`
}

// NormalizedSet is the canonical in-memory form every downstream component
// (resolver, mapper, writer) consumes. Category is lowercased and trimmed;
// list fields are always materialized slices.
type NormalizedSet struct {
	Category      string
	Class         string
	Length        string
	Width         string
	Height        string
	Diameter      string
	Thickness     string
	NumPerSqm     string
	BlockType     string
	Holes         []HoleGeometry
	CastingDate   *time.Time
	TestingDate   *time.Time
	AgeDays       *int
	AreaOfUse     string
	SerialNumbers []string
	AssignedTests []string
}

// NormalizeSet coerces one raw set into canonical form. It never fails:
// malformed fields degrade to safe defaults and are reported as warnings so a
// single bad set cannot block its siblings. Pure transform, no side effects.
func NormalizeSet(raw SetInput) (NormalizedSet, []string) {
	var warnings []string

	tests, warn := decodeTestList(raw.AssignedTests)
	if warn != "" {
		warnings = append(warnings, warn)
	}
	serials, warn := decodeSerialList(raw.SerialNumbers)
	if warn != "" {
		warnings = append(warnings, warn)
	}

	casting, warn := parseDate(raw.DateOfCast, "dateOfCast")
	if warn != "" {
		warnings = append(warnings, warn)
	}
	testing, warn := parseDate(raw.DateOfTest, "dateOfTest")
	if warn != "" {
		warnings = append(warnings, warn)
	}

	set := NormalizedSet{
		Category:      normalization.ParseInputString(raw.Category),
		Class:         strings.TrimSpace(raw.Class),
		Length:        strings.TrimSpace(raw.Length),
		Width:         strings.TrimSpace(raw.Width),
		Height:        strings.TrimSpace(raw.Height),
		Diameter:      strings.TrimSpace(raw.Diameter),
		Thickness:     strings.TrimSpace(raw.Thickness),
		NumPerSqm:     strings.TrimSpace(raw.NumPerSqm),
		BlockType:     strings.TrimSpace(raw.BlockType),
		Holes:         raw.Holes,
		CastingDate:   casting,
		TestingDate:   testing,
		AreaOfUse:     strings.TrimSpace(raw.AreaOfUse),
		SerialNumbers: serials,
		AssignedTests: tests,
	}
	set.AgeDays, warn = resolveAgeDays(raw.Age, casting, testing)
	if warn != "" {
		warnings = append(warnings, warn)
	}
	return set, warnings
}

// decodeTestList accepts a native JSON array of test names or a JSON string
// whose content is itself a JSON-encoded array. Anything else yields an
// empty list.
func decodeTestList(raw json.RawMessage) ([]string, string) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, ""
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return trimAll(names), ""
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return []string{}, ""
		}
		if err := json.Unmarshal([]byte(encoded), &names); err == nil {
			return trimAll(names), ""
		}
		return []string{}, fmt.Sprintf("assignedTests is not valid JSON: %q", encoded)
	}
	return []string{}, fmt.Sprintf("assignedTests has unsupported shape: %s", string(raw))
}

// decodeSerialList accepts a native JSON array of serials or a single
// comma-joined string.
func decodeSerialList(raw json.RawMessage) ([]string, string) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, ""
	}
	var serials []string
	if err := json.Unmarshal(raw, &serials); err == nil {
		return trimAll(serials), ""
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return normalization.SplitList(joined), ""
	}
	return []string{}, fmt.Sprintf("serialNumbers has unsupported shape: %s", string(raw))
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(raw, field string) (*time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, ""
		}
	}
	return nil, fmt.Sprintf("%s is not a recognized date: %q", field, raw)
}

// resolveAgeDays prefers the declared age; when absent or non-numeric it
// derives the age from the cast and test dates. A non-numeric declared age
// is reported as a warning like every other degraded field.
func resolveAgeDays(raw string, casting, testing *time.Time) (*int, string) {
	var warn string
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if age, err := strconv.Atoi(raw); err == nil {
			return &age, ""
		}
		warn = fmt.Sprintf("age is not numeric: %q", raw)
	}
	if casting != nil && testing != nil {
		age := int(testing.Sub(*casting).Hours() / 24)
		return &age, warn
	}
	return nil, warn
}
