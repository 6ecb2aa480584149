package importer

import "strings"

// AllowedExtensions is the single source of truth for importable image
// formats, used by the import paths and by WatchFolder. Any directory walk
// over images (including any future one) MUST reuse this list rather than
// keeping its own — the spec calls out that divergence as a correctness bug
// class. ScanFolderForProjects does not walk images/: it reads each
// project's image count from metadata.json.
var AllowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsAllowedExtension reports whether ext (with or without a leading dot) is
// an importable image format, case-insensitively.
func IsAllowedExtension(ext string) bool {
	if ext == "" {
		return false
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return AllowedExtensions[strings.ToLower(ext)]
}
