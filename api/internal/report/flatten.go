package report

import (
	"strings"
	"time"
)

const (
	listSep    = ", "
	bundleSep  = " || "
	concernSep = " | "
	notAvail   = "N/A"
	noConcerns = "None"
)

// Flatten turns one analysis into one sheet row.
func Flatten(id string, at time.Time, a MedicalReportAnalysis) ReportRecord {
	n := len(a.Levels)
	names := make([]string, 0, n)
	values := make([]string, 0, n)
	ranges := make([]string, 0, n)
	what := make([]string, 0, n)
	means := make([]string, 0, n)
	why := make([]string, 0, n)
	causes := make([]string, 0, n)

	for _, l := range a.Levels {
		names = append(names, l.Name)
		values = append(values, l.Value)
		ranges = append(ranges, orNA(l.ReferenceRange))
		what = append(what, l.Name+": "+l.WhatItIs)
		means = append(means, l.Name+": "+l.YourLevelMeans)
		why = append(why, l.Name+": "+l.WhyItMatters)
		causes = append(causes, l.Name+": "+orNA(l.PossibleCauses))
	}

	return ReportRecord{
		ID:              id,
		Timestamp:       at.Local().Format(RecordTimeLayout),
		TestType:        a.Type,
		ParameterNames:  strings.Join(names, listSep),
		Values:          strings.Join(values, listSep),
		ReferenceRanges: strings.Join(ranges, listSep),
		WhatItIs:        strings.Join(what, bundleSep),
		YourLevelMeans:  strings.Join(means, bundleSep),
		WhyItMatters:    strings.Join(why, bundleSep),
		PossibleCauses:  strings.Join(causes, bundleSep),
		ConcernsSummary: SummarizeConcerns(a.Concerns),
	}
}

func SummarizeConcerns(concerns []string) string {
	if len(concerns) == 0 {
		return noConcerns
	}
	return strings.Join(concerns, concernSep)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvail
	}
	return *s
}

// Parameter is one entry of a stored record split back into columns.
type Parameter struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	ReferenceRange string `json:"reference_range"`
}

// Parameters splits the joined name/value/range columns of a stored record.
// Entries whose value or range is missing are dropped.
func (r ReportRecord) Parameters() []Parameter {
	if r.ParameterNames == "" {
		return nil
	}
	names := strings.Split(r.ParameterNames, listSep)
	values := strings.Split(r.Values, listSep)
	ranges := strings.Split(r.ReferenceRanges, listSep)

	out := make([]Parameter, 0, len(names))
	for i, name := range names {
		if i >= len(values) || i >= len(ranges) {
			break
		}
		out = append(out, Parameter{Name: name, Value: values[i], ReferenceRange: ranges[i]})
	}
	return out
}

// HasConcerns reports whether the stored summary lists anything.
func (r ReportRecord) HasConcerns() bool {
	s := strings.TrimSpace(r.ConcernsSummary)
	return s != "" && !strings.EqualFold(s, noConcerns)
}
