package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/util"
)

// SchemaName is the json_schema name sent to providers.
const SchemaName = "medical_report_analysis"

//go:embed lab_report.schema.json
var schemaJSON []byte

var compiled = mustCompile(schemaJSON)

func mustCompile(b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic("extract: bad embedded schema: " + err.Error())
	}
	return s
}

// Schema returns a fresh copy of the output schema; callers may mutate it.
func Schema() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(schemaJSON, &m); err != nil {
		panic("extract: bad embedded schema: " + err.Error())
	}
	return m
}

// Decode checks provider output against the schema and decodes it.
// Code fences are tolerated; anything else off-schema is rejected.
func Decode(raw string) (report.MedicalReportAnalysis, error) {
	out := util.StripCodeFences(raw)
	if out == "" {
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindSchemaViolation, "empty model output")
	}

	if err := checkSingleValue(out); err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindSchemaViolation, "model output is not a single JSON object", err)
	}

	res, err := compiled.Validate(gojsonschema.NewStringLoader(out))
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindSchemaViolation, "model output is not JSON", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindSchemaViolation, "model output does not match schema: %s", strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(out)))
	dec.DisallowUnknownFields()
	var a report.MedicalReportAnalysis
	if err := dec.Decode(&a); err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindSchemaViolation, "decode model output", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindSchemaViolation, "trailing data after model output")
	}
	if a.Concerns == nil {
		a.Concerns = []string{}
	}
	return a, nil
}

// checkSingleValue walks the token stream: exactly one value, no repeated
// object keys at any depth.
func checkSingleValue(s string) error {
	dec := json.NewDecoder(strings.NewReader(s))
	if err := walkValue(dec); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data")
	}
	return nil
}

func walkValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
		seen := map[string]bool{}
		for dec.More() {
			k, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := k.(string)
			if seen[key] {
				return fmt.Errorf("duplicate key %q", key)
			}
			seen[key] = true
			if err := walkValue(dec); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	case json.Delim('['):
		for dec.More() {
			if err := walkValue(dec); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	}
	return nil
}
