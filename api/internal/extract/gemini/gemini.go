package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"hospital-portal/api/internal/extract"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/util"
)

type Engine struct {
	APIKey      string
	Model       string
	Temperature float32
	PromptDir   string
	// ClientOptions are appended after the API key, e.g. a custom endpoint.
	ClientOptions []option.ClientOption
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		Temperature: 0.3,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) CheckConfig() error {
	if e.APIKey == "" {
		return report.Errorf(report.KindConfiguration, "GEMINI_API_KEY not set")
	}
	return nil
}

func (e *Engine) Extract(ctx context.Context, img []byte, filename, declaredMIME string) (report.MedicalReportAnalysis, error) {
	if err := e.CheckConfig(); err != nil {
		return report.MedicalReportAnalysis{}, err
	}
	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.ClientOptions...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindProvider, "gemini client", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(e.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extract.SystemPrompt(e.PromptDir, e.Name()))},
	}

	parts := []genai.Part{
		genai.Text(extract.UserPrompt),
		&genai.Blob{MIMEType: util.MimeFromFilename(filename, declaredMIME, img), Data: img},
	}
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindProvider, "gemini generate", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindProvider, "gemini: empty response")
	}
	return extract.Decode(txt)
}

// responseSchema mirrors lab_report.schema.json in Gemini's OpenAPI subset.
func responseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	nullable := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString, Nullable: true} }

	level := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":             str(),
			"value":            str(),
			"reference_range":  nullable(),
			"what_it_is":       str(),
			"your_level_means": str(),
			"why_it_matters":   str(),
			"possible_causes":  nullable(),
		},
		Required: []string{
			"name", "value", "reference_range", "what_it_is",
			"your_level_means", "why_it_matters", "possible_causes",
		},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":     str(),
			"levels":   {Type: genai.TypeArray, Items: level},
			"concerns": {Type: genai.TypeArray, Items: str()},
		},
		Required: []string{"type", "levels", "concerns"},
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
