package report

import "strings"

// MaxImageBytes is the inclusive upload limit.
const MaxImageBytes = 16 << 20

var allowedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedMIME reports whether m (parameters ignored) is an accepted image type.
func AllowedMIME(m string) bool {
	return allowedMIME[baseMIME(m)]
}

func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

// Validate checks presence, declared type and size, in that order. No side effects.
func Validate(img *UploadedImage) error {
	if img == nil || (img.Size == 0 && len(img.Data) == 0) {
		return Errorf(KindMissingInput, "no image file provided")
	}
	if !AllowedMIME(img.MIMEType) {
		return Errorf(KindUnsupportedFormat, "unsupported image type %q", img.MIMEType)
	}
	size := img.Size
	if n := int64(len(img.Data)); n > size {
		size = n
	}
	if size > MaxImageBytes {
		return Errorf(KindPayloadTooLarge, "image is %d bytes, max %d", size, MaxImageBytes)
	}
	return nil
}
