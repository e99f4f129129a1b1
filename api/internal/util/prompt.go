package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPrompt reads <dir>/<provider>/<name>.<kind>.txt.
// An empty dir, a missing file or an empty file is reported as an error so
// callers can fall back to the built-in text.
func LoadPrompt(dir, provider, name, kind string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("prompt dir not set")
	}
	if provider == "" {
		return "", fmt.Errorf("provider is empty")
	}
	p := filepath.Join(dir, strings.ToLower(provider), fmt.Sprintf("%s.%s.txt", name, kind))
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", p, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("prompt %s is empty", p)
	}
	return s, nil
}
