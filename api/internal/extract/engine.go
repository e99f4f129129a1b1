package extract

import (
	"context"
	"fmt"
	"strings"

	"hospital-portal/api/internal/report"
)

// Engine turns one lab-report image into a structured analysis.
type Engine interface {
	Name() string
	GetModel() string
	// CheckConfig reports missing provider credentials as a ConfigurationError.
	CheckConfig() error
	Extract(ctx context.Context, img []byte, filename, declaredMIME string) (report.MedicalReportAnalysis, error)
}

type Engines struct {
	OpenAI  Engine
	Gemini  Engine
	Default string
}

// GetEngine resolves a provider name; empty selects Default. A bad caller
// choice is UnknownProvider, a bad Default is a configuration error.
func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = strings.ToLower(e.Default)
	}
	var eng Engine
	switch name {
	case "gpt", "openai":
		eng = e.OpenAI
	case "gemini":
		eng = e.Gemini
	default:
		if strings.TrimSpace(llmName) == "" {
			return nil, report.Errorf(report.KindConfiguration, "unknown default extraction provider %q", e.Default)
		}
		return nil, report.Errorf(report.KindUnknownProvider, "unknown extraction provider %q; use 'gpt' or 'gemini'", llmName)
	}
	if eng == nil {
		return nil, report.Errorf(report.KindConfiguration, "extraction provider %q is not set up", name)
	}
	return eng, nil
}

// Names lists the providers that have credentials.
func (e *Engines) Names() []string {
	var out []string
	for _, eng := range []Engine{e.OpenAI, e.Gemini} {
		if eng != nil && eng.CheckConfig() == nil {
			out = append(out, fmt.Sprintf("%s:%s", eng.Name(), eng.GetModel()))
		}
	}
	return out
}
