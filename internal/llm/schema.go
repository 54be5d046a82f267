package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const extractionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["found_data", "data_quality", "confidence_level"],
  "properties": {
    "found_data": {
      "type": "object",
      "properties": {
        "usable_area":        {"type": ["number", "null"]},
        "energy_use_index":   {"type": ["number", "null"]},
        "annual_heat_demand": {"type": ["number", "null"]},
        "direct_power":       {"type": ["number", "null"]},
        "design_temperature": {"type": ["number", "null"]},
        "location":           {"type": ["string", "null"]},
        "building_type":      {"type": ["string", "null"]},
        "energy_standard":    {"type": ["string", "null"]}
      }
    },
    "analysis_summary": {"type": "string"},
    "data_quality": {"enum": ["good", "partial", "insufficient"]},
    "recommended_calculation_method": {"type": "string"},
    "confidence_level": {"type": "number", "minimum": 0, "maximum": 1},
    "notes": {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func extractionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extraction.json", strings.NewReader(extractionSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("extraction.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Validate checks a normalized response against the extraction schema.
func Validate(obj map[string]any) error {
	schema, err := extractionSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(any(obj)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}

// ParseExtraction turns raw model output into an Extraction. It recovers the
// JSON object, normalizes values and validates the result.
func ParseExtraction(raw string) (Extraction, error) {
	obj, err := DecodeObject(raw)
	if err != nil {
		return Extraction{}, err
	}
	obj = Normalize(obj)
	if err := Validate(obj); err != nil {
		return Extraction{}, err
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return Extraction{}, fmt.Errorf("marshal normalized output: %w", err)
	}
	var out Extraction
	if err := json.Unmarshal(b, &out); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return out, nil
}
