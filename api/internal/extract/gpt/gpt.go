package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hospital-portal/api/internal/extract"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/util"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	PromptDir   string
	httpc       *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:      strings.TrimSpace(key),
		Model:       strings.TrimSpace(model),
		BaseURL:     DefaultBaseURL,
		Temperature: 0.3,
		httpc:       &http.Client{Timeout: 5 * time.Minute},
	}
}

func (e *Engine) Name() string { return "gpt" }

func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) CheckConfig() error {
	if e.APIKey == "" {
		return report.Errorf(report.KindConfiguration, "OPENAI_API_KEY not set")
	}
	return nil
}

// Extract sends one Responses API call with a strict json_schema format.
func (e *Engine) Extract(ctx context.Context, img []byte, filename, declaredMIME string) (report.MedicalReportAnalysis, error) {
	if err := e.CheckConfig(); err != nil {
		return report.MedicalReportAnalysis{}, err
	}

	mime := util.MimeFromFilename(filename, declaredMIME, img)
	dataURL := util.EncodeDataURL(mime, img)

	schema := extract.Schema()
	util.FixJSONSchemaStrict(schema)

	body := map[string]any{
		"model": e.Model,
		"input": []any{
			map[string]any{
				"role": "system",
				"content": []any{
					map[string]any{"type": "input_text", "text": extract.SystemPrompt(e.PromptDir, e.Name())},
				},
			},
			map[string]any{
				"type": "message",
				"role": "user",
				"content": []any{
					map[string]any{"type": "input_text", "text": extract.UserPrompt},
					map[string]any{"type": "input_image", "image_url": dataURL},
				},
			},
		},
		"temperature": e.Temperature,
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   extract.SchemaName,
				"strict": true,
				"schema": schema,
			},
		},
	}
	// gpt-5 models only accept the default temperature
	if strings.Contains(e.Model, "gpt-5") {
		body["temperature"] = 1
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return report.MedicalReportAnalysis{}, fmt.Errorf("openai: marshal request: %w", err)
	}
	url := strings.TrimRight(e.BaseURL, "/") + "/responses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindProvider, "openai: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindProvider, "openai request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return report.MedicalReportAnalysis{}, report.Wrap(report.KindProvider, "openai: read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindProvider, "openai %d: %s", resp.StatusCode, util.Truncate(string(bytes.TrimSpace(raw)), 512))
	}

	out := fallbackExtractResponsesText(raw)
	if strings.TrimSpace(out) == "" {
		if r := refusal(raw); r != "" {
			return report.MedicalReportAnalysis{}, report.Errorf(report.KindProvider, "openai refused: %s", r)
		}
		return report.MedicalReportAnalysis{}, report.Errorf(report.KindProvider, "responses: empty output; body=%s", util.Truncate(string(raw), 1024))
	}
	return extract.Decode(out)
}
