// Package imageenc base64-encodes image files once and derives their MIME
// type from the file extension, for reuse across every vision provider.
package imageenc

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
)

var extToMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// MimeType derives a MIME type from a file path's extension, defaulting to
// image/jpeg when the extension is unrecognized.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := extToMime[ext]; ok {
		return mime
	}
	return "image/jpeg"
}

// EncodeBase64 reads path and returns its standard base64 encoding and
// derived MIME type.
func EncodeBase64(path string) (data, mime string, err error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(bytes), MimeType(path), nil
}
