package packages

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed default.json
var defaultDocument []byte

// ErrParse reports a package document that could not be parsed at all.
var ErrParse = errors.New("malformed package document")

// Format is the encoding of a package document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Default returns the built-in package document.
func Default() []byte {
	return append([]byte(nil), defaultDocument...)
}

// LoadFile reads the document at path and loads it.
func LoadFile(path string, log zerolog.Logger) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to read package document")
		return nil, fmt.Errorf("failed to read package document %s: %w", path, err)
	}
	return LoadAll(data, FormatFromPath(path), log)
}

// LoadAll parses doc and returns its valid records in document order.
//
// A document that cannot be parsed yields no records and a single error
// wrapping ErrParse. Records that parse but fail validation are logged and
// skipped.
func LoadAll(doc []byte, format Format, log zerolog.Logger) ([]Record, error) {
	entries, err := decodeDocument(doc, format)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrParse, err)
		log.Error().Err(err).Str("format", string(format)).Msg("Failed to load package document")
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for i, entry := range entries {
		rec, err := recordFromMap(entry)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			log.Error().
				Err(err).
				Int("index", i).
				Interface("data", entry).
				Msg("Skipping invalid package record")
			continue
		}
		records = append(records, rec)
	}

	log.Debug().Int("records", len(records)).Int("entries", len(entries)).Msg("Loaded package document")
	return records, nil
}

func decodeDocument(doc []byte, format Format) ([]map[string]any, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(doc, &raw); err != nil {
			return nil, err
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(doc))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("unexpected data after top-level array")
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("top level must be an array of package records, got %T", raw)
	}

	entries := make([]map[string]any, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d must be an object, got %T", i, item)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// recordFromMap populates a Record from the recognized keys of entry.
// Unknown keys are ignored.
func recordFromMap(entry map[string]any) (Record, error) {
	rec := Record{State: DefaultState}

	strField := func(key string, dst *string) error {
		v, ok := entry[key]
		if !ok {
			return nil
		}
		s, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalid, key, err)
		}
		*dst = s
		return nil
	}

	var pkgType, state string
	fields := []struct {
		key string
		dst *string
	}{
		{"full_name", &rec.FullName},
		{"name", &rec.Name},
		{"package_type", &pkgType},
		{"mas_id", &rec.MasID},
		{"state", &state},
	}
	for _, f := range fields {
		if err := strField(f.key, f.dst); err != nil {
			return Record{}, err
		}
	}
	rec.Type = Type(pkgType)
	if state != "" {
		rec.State = State(state)
	}

	if v, ok := entry["force"]; ok {
		force, err := boolValue(v)
		if err != nil {
			return Record{}, fmt.Errorf("%w: field force: %v", ErrInvalid, err)
		}
		rec.Force = force
	}

	return rec, nil
}

func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", v)
	}
}

func boolValue(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case string:
		if val == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err != nil {
			return false, fmt.Errorf("expected true or false, got %q", val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}
