package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/extract"
	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/store"
)

// WarningNotStored is set on the envelope when the sheet write failed.
const WarningNotStored = "Saved locally but not stored in sheet"

type State string

const (
	Validating State = "validating"
	Extracting State = "extracting"
	Persisting State = "persisting"
	Done       State = "done"
	Failed     State = "failed"
)

type EngineSource interface {
	GetEngine(name string) (extract.Engine, error)
}

type Persister interface {
	Persist(ctx context.Context, rec report.ReportRecord) report.PersistOutcome
}

type Archiver interface {
	Save(ctx context.Context, r store.ArchivedReport) error
}

type Notifier interface {
	NotifyConcerns(ctx context.Context, env report.Envelope) error
}

type Options struct {
	ExtractTimeout time.Duration
	PersistTimeout time.Duration
	// Archive and Notify are optional.
	Archive Archiver
	Notify  Notifier
}

// Pipeline runs one upload through validation, extraction and storage.
type Pipeline struct {
	engines EngineSource
	norm    *report.Normalizer
	persist Persister
	opts    Options
	log     *logrus.Entry

	onState func(State)
}

func New(engines EngineSource, norm *report.Normalizer, persist Persister, log *logger.Logger, opts Options) *Pipeline {
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = 3 * time.Minute
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 30 * time.Second
	}
	return &Pipeline{
		engines: engines,
		norm:    norm,
		persist: persist,
		opts:    opts,
		log:     log.WithComponent("pipeline"),
	}
}

// Run returns the envelope or a *report.Error. A storage failure is not an
// error: the envelope then carries WarningNotStored.
func (p *Pipeline) Run(ctx context.Context, img *report.UploadedImage, provider string) (report.Envelope, error) {
	p.enter(Validating)
	if err := report.Validate(img); err != nil {
		return p.fail(err)
	}

	eng, err := p.engines.GetEngine(provider)
	if err != nil {
		return p.fail(err)
	}
	if err := eng.CheckConfig(); err != nil {
		return p.fail(err)
	}

	p.enter(Extracting)
	analysis, err := p.extract(ctx, eng, img)
	if err != nil {
		return p.fail(err)
	}

	env := p.norm.Normalize(analysis)
	log := p.log.WithFields(logrus.Fields{"report_id": env.ID, "engine": eng.Name()})

	p.enter(Persisting)
	rec := report.Flatten(env.ID, env.CreatedAt, env.Data)
	pctx, cancel := context.WithTimeout(ctx, p.opts.PersistTimeout)
	outcome := p.persist.Persist(pctx, rec)
	cancel()
	if !outcome.OK() {
		log.WithError(outcome.Reason).Warn("report not stored in sheet")
		env.Warning = WarningNotStored
	}

	p.sideEffects(ctx, log, eng, env)

	p.enter(Done)
	log.WithFields(logrus.Fields{
		"levels":   len(env.Data.Levels),
		"concerns": len(env.Data.Concerns),
		"stored":   outcome.OK(),
	}).Info("lab report processed")
	return env, nil
}

func (p *Pipeline) extract(ctx context.Context, eng extract.Engine, img *report.UploadedImage) (report.MedicalReportAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.ExtractTimeout)
	defer cancel()

	start := time.Now()
	a, err := eng.Extract(ctx, img.Data, img.Filename, img.MIMEType)
	p.log.WithFields(logrus.Fields{"engine": eng.Name(), "model": eng.GetModel(), "ms": time.Since(start).Milliseconds()}).Debug("extract finished")
	if err == nil {
		return a, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && report.KindOf(err) != report.KindSchemaViolation {
		return a, report.Wrap(report.KindProvider, "extraction timed out", err)
	}
	if report.KindOf(err) == "" {
		return a, report.Wrap(report.KindProvider, "extraction failed", err)
	}
	return a, err
}

// sideEffects never change the response.
func (p *Pipeline) sideEffects(ctx context.Context, log *logrus.Entry, eng extract.Engine, env report.Envelope) {
	if p.opts.Archive != nil {
		actx, cancel := context.WithTimeout(ctx, p.opts.PersistTimeout)
		err := p.opts.Archive.Save(actx, store.ArchivedReport{
			ID:        env.ID,
			CreatedAt: env.CreatedAt,
			Engine:    eng.Name(),
			Model:     eng.GetModel(),
			Analysis:  env.Data,
		})
		cancel()
		if err != nil {
			log.WithError(err).Warn("archive failed")
		}
	}
	if p.opts.Notify != nil && len(env.Data.Concerns) > 0 {
		nctx, cancel := context.WithTimeout(ctx, p.opts.PersistTimeout)
		err := p.opts.Notify.NotifyConcerns(nctx, env)
		cancel()
		if err != nil {
			log.WithError(err).Warn("concern alert failed")
		}
	}
}

func (p *Pipeline) enter(s State) {
	p.log.WithField("state", s).Debug("pipeline state")
	if p.onState != nil {
		p.onState(s)
	}
}

func (p *Pipeline) fail(err error) (report.Envelope, error) {
	p.enter(Failed)
	p.log.WithError(err).WithField("kind", report.KindOf(err)).Warn("lab report failed")
	return report.Envelope{}, err
}
