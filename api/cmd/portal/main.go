package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/config"
	"hospital-portal/api/internal/extract"
	"hospital-portal/api/internal/extract/gemini"
	"hospital-portal/api/internal/extract/gpt"
	"hospital-portal/api/internal/handle"
	"hospital-portal/api/internal/httpserver"
	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/pipeline"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/store"
	"hospital-portal/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gptEngine := gpt.New(cfg.Extraction.OpenAIAPIKey, cfg.Extraction.OpenAIModel)
	gptEngine.BaseURL = cfg.Extraction.OpenAIBaseURL
	gptEngine.Temperature = cfg.Extraction.Temperature
	gptEngine.PromptDir = cfg.Extraction.PromptDir

	geminiEngine := gemini.New(cfg.Extraction.GeminiAPIKey, cfg.Extraction.GeminiModel)
	geminiEngine.Temperature = float32(cfg.Extraction.Temperature)
	geminiEngine.PromptDir = cfg.Extraction.PromptDir

	engines := &extract.Engines{
		OpenAI:  gptEngine,
		Gemini:  geminiEngine,
		Default: cfg.Extraction.Provider,
	}
	if eng, err := engines.GetEngine(""); err != nil {
		log.WithError(err).Fatal("extraction provider")
	} else if err := eng.CheckConfig(); err != nil {
		// not fatal: uploads answer with a configuration error until the key is set
		log.WithError(err).Warn("default extraction provider has no credentials")
	}

	reports := store.NewReportWriter(sheetTable(ctx, cfg.Reports, "REPORTS_SPREADSHEET_ID", log), log)
	bookings := store.NewAppointmentWriter(sheetTable(ctx, cfg.Bookings, "GOOGLE_SHEET_ID", log))

	opts := pipeline.Options{
		ExtractTimeout: cfg.Extraction.Timeout,
		PersistTimeout: cfg.Extraction.PersistTimeout,
	}

	var archive handle.ArchiveFinder
	if cfg.DatabaseURL != "" {
		dbctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a, err := store.OpenArchive(dbctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("report archive disabled")
		} else {
			defer a.Close()
			a.DB.SetMaxOpenConns(10)
			a.DB.SetMaxIdleConns(10)
			a.DB.SetConnMaxLifetime(time.Hour)
			opts.Archive = a
			archive = a
			log.WithComponent("archive").Info("db connected")
		}
	}

	if cfg.TelegramBotToken != "" {
		n, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.WithError(err).Warn("telegram alerts disabled")
		} else {
			opts.Notify = n
		}
	}

	pl := pipeline.New(engines, report.NewNormalizer(report.IDsForMode(cfg.ReportIDMode)), reports, log, opts)

	h := handle.New(handle.Deps{
		Pipeline: pl,
		Reports:  reports,
		Archive:  archive,
		Bookings: bookings,
		Booker:   bookings,
		Engines:  engines,
		Patient:  cfg.Patient,
		Hospital: cfg.Hospital,
	}, log)

	e := httpserver.New(h, log, httpserver.Options{CORSOrigins: cfg.CORSOrigins})

	log.WithFields(logrus.Fields{
		"port":     cfg.Port,
		"provider": cfg.Extraction.Provider,
		"id_mode":  cfg.ReportIDMode,
	}).Info("hospital portal starting")

	if err := httpserver.StartHTTP(ctx, ":"+cfg.Port, e, log); err != nil {
		log.WithError(err).Fatal("http server")
	}
}

// sheetTable never fails: a missing or broken sheet setup becomes a Table
// whose calls return a ConfigurationError.
func sheetTable(ctx context.Context, sc config.SheetConfig, idVar string, log *logger.Logger) store.Table {
	if !sc.Enabled() {
		return store.Unavailable(report.Errorf(report.KindConfiguration, "%s is not defined", idVar))
	}
	creds, err := sc.CredentialsJSON()
	if err != nil {
		log.WithError(err).WithField("sheet", idVar).Warn("sheet credentials missing")
		return store.Unavailable(report.Wrap(report.KindConfiguration, fmt.Sprintf("credentials for %s", idVar), err))
	}
	svc, err := store.NewSheetsService(ctx, creds)
	if err != nil {
		log.WithError(err).WithField("sheet", idVar).Warn("sheets client")
		return store.Unavailable(report.Wrap(report.KindConfiguration, "sheets client", err))
	}
	return store.NewSheetTable(svc, sc.SpreadsheetID, sc.Tab)
}
