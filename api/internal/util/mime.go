package util

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

var extMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MimeFromFilename picks the media type sent upstream. The extension wins
// (case-insensitive); then an allowed declared type; then the content
// signature; image/png otherwise.
func MimeFromFilename(filename, declared string, data []byte) string {
	if m, ok := extMIME[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	d := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(d, ';'); i >= 0 {
		d = strings.TrimSpace(d[:i])
	}
	if d == "image/jpg" {
		d = "image/jpeg"
	}
	for _, m := range extMIME {
		if d == m {
			return d
		}
	}
	if m := SniffImageMIME(data); m != "" {
		return m
	}
	return "image/png"
}

// SniffImageMIME returns the detected type when it is one of the accepted
// images, "" otherwise.
func SniffImageMIME(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	m := http.DetectContentType(b)
	for _, ok := range extMIME {
		if m == ok {
			return m
		}
	}
	return ""
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// EncodeDataURL base64-encodes data under the given media type.
func EncodeDataURL(mime string, data []byte) string {
	return MakeDataURL(mime, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL splits data:<mime>;base64,<payload> into bytes and mime.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", fmt.Errorf("not a data url")
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return nil, "", fmt.Errorf("data url without payload")
	}
	meta := s[len("data:"):idx]
	mime := meta
	if semi := strings.IndexByte(meta, ';'); semi >= 0 {
		mime = meta[:semi]
	}
	b, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	return b, mime, nil
}
