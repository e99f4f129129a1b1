package report

import "time"

// UploadedImage is owned by one request and dropped once the pipeline returns.
type UploadedImage struct {
	Data     []byte
	Filename string
	MIMEType string // as declared by the client
	Size     int64
}

// TestLevel is one parameter of a lab report. All seven keys are always present
// on the wire; ReferenceRange and PossibleCauses are null when not applicable.
type TestLevel struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"` // with units
	ReferenceRange *string `json:"reference_range"`
	WhatItIs       string  `json:"what_it_is"`
	YourLevelMeans string  `json:"your_level_means"`
	WhyItMatters   string  `json:"why_it_matters"`
	PossibleCauses *string `json:"possible_causes"`
}

// MedicalReportAnalysis is the structured extraction result.
// Levels keep the order of the source document.
type MedicalReportAnalysis struct {
	Type     string      `json:"type"`
	Levels   []TestLevel `json:"levels"`
	Concerns []string    `json:"concerns"`
}

// Envelope is the response body of a successful upload.
type Envelope struct {
	Success   bool                  `json:"success"`
	ID        string                `json:"id"`
	Timestamp string                `json:"timestamp"`
	Data      MedicalReportAnalysis `json:"data"`
	Warning   string                `json:"warning,omitempty"`

	CreatedAt time.Time `json:"-"`
}

// ReportRecord is one denormalized row of the reports sheet.
type ReportRecord struct {
	ID              string `json:"id"`
	Timestamp       string `json:"timestamp"`
	TestType        string `json:"test_type"`
	ParameterNames  string `json:"parameter_name"`
	Values          string `json:"value"`
	ReferenceRanges string `json:"reference_range"`
	WhatItIs        string `json:"what_it_is"`
	YourLevelMeans  string `json:"your_level_means"`
	WhyItMatters    string `json:"why_it_matters"`
	PossibleCauses  string `json:"possible_causes"`
	ConcernsSummary string `json:"concerns_summary"`
}

// Header is the fixed first row of the reports sheet.
var Header = []string{
	"id", "timestamp", "test_type", "parameter_name", "value",
	"reference_range", "what_it_is", "your_level_means",
	"why_it_matters", "possible_causes", "concerns_summary",
}

func (r ReportRecord) Row() []string {
	return []string{
		r.ID,
		r.Timestamp,
		r.TestType,
		r.ParameterNames,
		r.Values,
		r.ReferenceRanges,
		r.WhatItIs,
		r.YourLevelMeans,
		r.WhyItMatters,
		r.PossibleCauses,
		r.ConcernsSummary,
	}
}

// ParseRecord maps a sheet row back to a record using the given header.
// Missing trailing cells are left empty.
func ParseRecord(header, row []string) ReportRecord {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	return ReportRecord{
		ID:              get("id"),
		Timestamp:       get("timestamp"),
		TestType:        get("test_type"),
		ParameterNames:  get("parameter_name"),
		Values:          get("value"),
		ReferenceRanges: get("reference_range"),
		WhatItIs:        get("what_it_is"),
		YourLevelMeans:  get("your_level_means"),
		WhyItMatters:    get("why_it_matters"),
		PossibleCauses:  get("possible_causes"),
		ConcernsSummary: get("concerns_summary"),
	}
}
