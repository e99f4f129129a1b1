package report

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func sampleAnalysis() MedicalReportAnalysis {
	return MedicalReportAnalysis{
		Type: "Blood Test",
		Levels: []TestLevel{
			{
				Name:           "Glucose",
				Value:          "110 mg/dL",
				ReferenceRange: strp("70-99 mg/dL"),
				WhatItIs:       "Sugar in your blood",
				YourLevelMeans: "Slightly high",
				WhyItMatters:   "Energy for cells",
				PossibleCauses: strp("Recent meal"),
			},
			{
				Name:           "HbA1c",
				Value:          "5.8%",
				ReferenceRange: nil,
				WhatItIs:       "Average sugar over 3 months",
				YourLevelMeans: "Borderline",
				WhyItMatters:   "Diabetes risk",
				PossibleCauses: nil,
			},
		},
		Concerns: []string{"High glucose"},
	}
}

func TestValidate(t *testing.T) {
	for _, m := range []string{"image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp", "IMAGE/PNG", "image/png; charset=binary"} {
		t.Run("accepts "+m, func(t *testing.T) {
			assert.NoError(t, Validate(&UploadedImage{Data: []byte{1}, MIMEType: m, Size: 1}))
		})
	}

	for _, m := range []string{"application/pdf", "image/svg+xml", "image/tiff", "text/plain", ""} {
		t.Run("rejects "+m, func(t *testing.T) {
			err := Validate(&UploadedImage{Data: []byte{1}, MIMEType: m, Size: 1})
			assert.Equal(t, KindUnsupportedFormat, KindOf(err))
		})
	}

	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, KindMissingInput, KindOf(Validate(nil)))
		assert.Equal(t, KindMissingInput, KindOf(Validate(&UploadedImage{MIMEType: "image/png"})))
	})

	t.Run("missing wins over format", func(t *testing.T) {
		assert.Equal(t, KindMissingInput, KindOf(Validate(&UploadedImage{MIMEType: "text/plain"})))
	})

	t.Run("size boundary", func(t *testing.T) {
		assert.NoError(t, Validate(&UploadedImage{Data: []byte{1}, MIMEType: "image/png", Size: MaxImageBytes}))

		err := Validate(&UploadedImage{Data: []byte{1}, MIMEType: "image/png", Size: MaxImageBytes + 1})
		assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	})

	t.Run("data longer than declared size", func(t *testing.T) {
		err := Validate(&UploadedImage{Data: make([]byte, MaxImageBytes+1), MIMEType: "image/png", Size: 10})
		assert.Equal(t, KindPayloadTooLarge, KindOf(err))
	})
}

func TestFlatten(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	rec := Flatten("ab", at, sampleAnalysis())

	assert.Equal(t, "ab", rec.ID)
	assert.Equal(t, "2025-03-04 05:06:07", rec.Timestamp)
	assert.Equal(t, "Blood Test", rec.TestType)
	assert.Equal(t, "Glucose, HbA1c", rec.ParameterNames)
	assert.Equal(t, "110 mg/dL, 5.8%", rec.Values)
	assert.Equal(t, "70-99 mg/dL, N/A", rec.ReferenceRanges)
	assert.Equal(t, "Glucose: Sugar in your blood || HbA1c: Average sugar over 3 months", rec.WhatItIs)
	assert.Equal(t, "Glucose: Slightly high || HbA1c: Borderline", rec.YourLevelMeans)
	assert.Equal(t, "Glucose: Energy for cells || HbA1c: Diabetes risk", rec.WhyItMatters)
	assert.Equal(t, "Glucose: Recent meal || HbA1c: N/A", rec.PossibleCauses)
	assert.Equal(t, "High glucose", rec.ConcernsSummary)

	assert.Len(t, rec.Row(), len(Header))
}

func TestSummarizeConcerns(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, "None"},
		{[]string{}, "None"},
		{[]string{"High glucose"}, "High glucose"},
		{[]string{"High glucose", "Low iron"}, "High glucose | Low iron"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SummarizeConcerns(c.in))
	}
}

type fixedID string

func (f fixedID) NewID() string { return string(f) }

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 999, time.UTC)
	n := &Normalizer{IDs: fixedID("r1"), Now: func() time.Time { return now }}

	a := sampleAnalysis()
	a.Concerns = nil
	env := n.Normalize(a)

	assert.True(t, env.Success)
	assert.Equal(t, "r1", env.ID)
	assert.Equal(t, "2025-01-02T03:04:05Z", env.Timestamp)
	assert.Equal(t, now.Truncate(time.Second), env.CreatedAt)
	require.NotNil(t, env.Data.Concerns)
	assert.Empty(t, env.Data.Concerns)
	assert.Empty(t, env.Warning)
}

func TestIDGenerators(t *testing.T) {
	legacy := regexp.MustCompile(`^\d{2}$`)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, legacy, LegacyIDs{}.NewID())
	}

	a, b := UUIDs{}.NewID(), UUIDs{}.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	assert.IsType(t, LegacyIDs{}, IDsForMode("legacy"))
	assert.IsType(t, UUIDs{}, IDsForMode("uuid"))
	assert.IsType(t, UUIDs{}, NewNormalizer(nil).IDs)
}

func TestParseRecord(t *testing.T) {
	rec := Flatten("07", time.Now(), sampleAnalysis())

	got := ParseRecord(Header, rec.Row())
	assert.Equal(t, rec, got)

	short := ParseRecord(Header, []string{"07", "2025-01-01 00:00:00", "Blood Test"})
	assert.Equal(t, "Blood Test", short.TestType)
	assert.Empty(t, short.ConcernsSummary)

	params := got.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, Parameter{Name: "HbA1c", Value: "5.8%", ReferenceRange: "N/A"}, params[1])
	assert.True(t, got.HasConcerns())
	assert.False(t, ReportRecord{ConcernsSummary: "None"}.HasConcerns())
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(KindProvider, "call openai", base)

	assert.Equal(t, KindProvider, KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.True(t, strings.HasPrefix(err.Error(), "call openai: "))
	assert.Equal(t, Kind(""), KindOf(base))

	out := PersistError(base)
	assert.False(t, out.OK())
	assert.Equal(t, KindPersistence, KindOf(out.Reason))
	assert.True(t, PersistOK().OK())
	assert.Equal(t, "persist_failed", out.Status.String())
}
