// Package recordfile reads checklist records from YAML or JSON files for the offline tools.
package recordfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

// Parse decodes a record from YAML or JSON bytes and normalizes it. Bare numbers are read as
// text, so `empMale: 12` and `empMale: "12"` are equivalent.
func Parse(data []byte) (domain.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Record{}, fmt.Errorf("recordfile: payload is empty")
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: decode: %w", err)
	}

	// The YAML tree goes through JSON so the record keeps a single set of field names.
	encoded, err := json.Marshal(scalarsToText(tree))
	if err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: re-encode: %w", err)
	}
	var record domain.Record
	if err := json.Unmarshal(encoded, &record); err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: map fields: %w", err)
	}

	normalized, err := record.Normalize()
	if err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: %w", err)
	}
	return normalized, nil
}

// LoadReader reads record data from r.
func LoadReader(r io.Reader) (domain.Record, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: read: %w", err)
	}
	return Parse(content)
}

// LoadFile reads a record from path; "-" reads standard input.
func LoadFile(path string) (domain.Record, error) {
	if path == "-" {
		return LoadReader(os.Stdin)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Record{}, fmt.Errorf("recordfile: read %s: %w", path, err)
	}
	record, err := Parse(content)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return record, nil
}

func scalarsToText(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = scalarsToText(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = scalarsToText(child)
		}
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return v
}
