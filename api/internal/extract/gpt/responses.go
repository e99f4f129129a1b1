package gpt

import (
	"encoding/json"
	"strings"
)

type responseContent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Refusal string `json:"refusal"`
}

type responseEnvelope struct {
	Object string `json:"object"`
	Status string `json:"status"`
	Output []struct {
		Content []responseContent `json:"content"`
		Role    string            `json:"role,omitempty"`
	} `json:"output"`
	OutputText string `json:"output_text"`
}

// fallbackExtractResponsesText extracts model text from the Responses API envelope.
// It prefers `output_text`, and otherwise concatenates any text segments
// found in `output[i].content[j].text` where `type` is `output_text` or `text`.
func fallbackExtractResponsesText(raw []byte) string {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if s := strings.TrimSpace(env.OutputText); s != "" {
		return s
	}

	var b strings.Builder
	for _, o := range env.Output {
		for _, c := range o.Content {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			if c.Type == "output_text" || c.Type == "text" || c.Type == "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func refusal(raw []byte) string {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	for _, o := range env.Output {
		for _, c := range o.Content {
			if c.Type == "refusal" && c.Refusal != "" {
				return c.Refusal
			}
		}
	}
	return ""
}
