package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-portal/api/internal/extract"
	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/store"
)

func strp(s string) *string { return &s }

var knownAnalysis = report.MedicalReportAnalysis{
	Type: "Blood Test",
	Levels: []report.TestLevel{
		{Name: "Glucose", Value: "110 mg/dL", ReferenceRange: strp("70-99 mg/dL"), WhatItIs: "a", YourLevelMeans: "b", WhyItMatters: "c", PossibleCauses: strp("d")},
		{Name: "HbA1c", Value: "5.8%", WhatItIs: "a", YourLevelMeans: "b", WhyItMatters: "c"},
	},
	Concerns: []string{"High glucose"},
}

type stubEngine struct {
	analysis report.MedicalReportAnalysis
	err      error
	cfgErr   error
	wait     bool
	calls    int
}

func (s *stubEngine) Name() string       { return "stub" }
func (s *stubEngine) GetModel() string   { return "stub-1" }
func (s *stubEngine) CheckConfig() error { return s.cfgErr }
func (s *stubEngine) Extract(ctx context.Context, _ []byte, _, _ string) (report.MedicalReportAnalysis, error) {
	s.calls++
	if s.wait {
		<-ctx.Done()
		return report.MedicalReportAnalysis{}, ctx.Err()
	}
	return s.analysis, s.err
}

type recordingPersister struct {
	mu      sync.Mutex
	records []report.ReportRecord
	fail    error
}

func (r *recordingPersister) Persist(_ context.Context, rec report.ReportRecord) report.PersistOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return report.PersistError(r.fail)
	}
	r.records = append(r.records, rec)
	return report.PersistOK()
}

type recordingArchive struct{ saved []store.ArchivedReport }

func (a *recordingArchive) Save(_ context.Context, r store.ArchivedReport) error {
	a.saved = append(a.saved, r)
	return nil
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) NotifyConcerns(context.Context, report.Envelope) error {
	n.calls++
	return errors.New("telegram down")
}

type idSeq struct{ n int }

func (s *idSeq) NewID() string { s.n++; return "r" + string(rune('0'+s.n)) }

func newPipeline(eng *stubEngine, p Persister, opts Options) (*Pipeline, *[]State) {
	engs := &extract.Engines{OpenAI: eng, Default: "gpt"}
	norm := report.NewNormalizer(&idSeq{})
	pl := New(engs, norm, p, logger.Discard(), opts)
	var states []State
	pl.onState = func(s State) { states = append(states, s) }
	return pl, &states
}

func pngUpload() *report.UploadedImage {
	return &report.UploadedImage{Data: []byte{0x89, 'P', 'N', 'G'}, Filename: "scan.png", MIMEType: "image/png", Size: 4}
}

func TestRunSuccess(t *testing.T) {
	eng := &stubEngine{analysis: knownAnalysis}
	per := &recordingPersister{}
	arc := &recordingArchive{}
	pl, states := newPipeline(eng, per, Options{Archive: arc})

	env, err := pl.Run(context.Background(), pngUpload(), "")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, "r1", env.ID)
	assert.Empty(t, env.Warning)
	assert.Equal(t, knownAnalysis, env.Data)
	assert.Equal(t, []State{Validating, Extracting, Persisting, Done}, *states)

	require.Len(t, per.records, 1)
	assert.Equal(t, "Glucose, HbA1c", per.records[0].ParameterNames)
	assert.Equal(t, "110 mg/dL, 5.8%", per.records[0].Values)
	assert.Equal(t, "High glucose", per.records[0].ConcernsSummary)

	require.Len(t, arc.saved, 1)
	assert.Equal(t, "stub", arc.saved[0].Engine)
}

func TestRunPersistFailureKeepsData(t *testing.T) {
	eng := &stubEngine{analysis: knownAnalysis}
	notifier := &failingNotifier{}
	pl, states := newPipeline(eng, &recordingPersister{fail: errors.New("network down")}, Options{Notify: notifier})

	env, err := pl.Run(context.Background(), pngUpload(), "gpt")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, WarningNotStored, env.Warning)
	assert.Equal(t, knownAnalysis, env.Data)
	assert.Equal(t, Done, (*states)[len(*states)-1])
	assert.Equal(t, 1, notifier.calls)
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name string
		img  *report.UploadedImage
		eng  *stubEngine
		kind report.Kind
	}{
		{"no file", nil, &stubEngine{}, report.KindMissingInput},
		{"bad type", &report.UploadedImage{Data: []byte("x"), Filename: "a.pdf", MIMEType: "application/pdf", Size: 1}, &stubEngine{}, report.KindUnsupportedFormat},
		{"too large", &report.UploadedImage{Data: []byte("x"), Filename: "a.png", MIMEType: "image/png", Size: report.MaxImageBytes + 1}, &stubEngine{}, report.KindPayloadTooLarge},
		{"no key", pngUpload(), &stubEngine{cfgErr: report.Errorf(report.KindConfiguration, "OPENAI_API_KEY not set")}, report.KindConfiguration},
		{"provider", pngUpload(), &stubEngine{err: report.Errorf(report.KindProvider, "openai 500")}, report.KindProvider},
		{"plain error", pngUpload(), &stubEngine{err: errors.New("eof")}, report.KindProvider},
		{"schema", pngUpload(), &stubEngine{err: report.Errorf(report.KindSchemaViolation, "missing levels")}, report.KindSchemaViolation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			per := &recordingPersister{}
			pl, states := newPipeline(c.eng, per, Options{})

			_, err := pl.Run(context.Background(), c.img, "")
			require.Error(t, err)
			assert.Equal(t, c.kind, report.KindOf(err))
			assert.Equal(t, Failed, (*states)[len(*states)-1])
			assert.Empty(t, per.records)
		})
	}
}

func TestRunSkipsExtractionWhenInvalid(t *testing.T) {
	eng := &stubEngine{}
	pl, _ := newPipeline(eng, &recordingPersister{}, Options{})
	_, err := pl.Run(context.Background(), &report.UploadedImage{Data: []byte("x"), MIMEType: "text/plain", Size: 1}, "")
	require.Error(t, err)
	assert.Zero(t, eng.calls)

	eng = &stubEngine{cfgErr: report.Errorf(report.KindConfiguration, "missing")}
	pl, _ = newPipeline(eng, &recordingPersister{}, Options{})
	_, err = pl.Run(context.Background(), pngUpload(), "")
	require.Error(t, err)
	assert.Zero(t, eng.calls)
}

func TestRunExtractTimeout(t *testing.T) {
	pl, _ := newPipeline(&stubEngine{wait: true}, &recordingPersister{}, Options{ExtractTimeout: 20 * time.Millisecond})

	_, err := pl.Run(context.Background(), pngUpload(), "")
	require.Error(t, err)
	assert.Equal(t, report.KindProvider, report.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunUnknownProvider(t *testing.T) {
	pl, _ := newPipeline(&stubEngine{}, &recordingPersister{}, Options{})
	_, err := pl.Run(context.Background(), pngUpload(), "llama")
	assert.Equal(t, report.KindConfiguration, report.KindOf(err))
}
