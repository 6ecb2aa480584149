package imageenc

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMimeTypeKnownExtensions(t *testing.T) {
	assert.Equal(t, "image/png", MimeType("/a/b/cat.PNG"))
	assert.Equal(t, "image/jpeg", MimeType("photo.jpg"))
	assert.Equal(t, "image/webp", MimeType("photo.webp"))
}

func TestMimeTypeUnknownExtensionFallsBackToJPEG(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeType("file.tiff"))
}

func TestEncodeBase64RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, []byte("raw-bytes"), 0o644))

	data, mime, err := EncodeBase64(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.NotEmpty(t, data)

	decoded, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	assert.Equal(t, "raw-bytes", string(decoded))
}
