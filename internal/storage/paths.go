package storage

import "path/filepath"

func imagesDir(projectPath string) string         { return filepath.Join(projectPath, "images") }
func thumbnailsDir(projectPath string) string     { return filepath.Join(projectPath, "thumbnails") }
func metadataPath(projectPath string) string      { return filepath.Join(projectPath, "metadata.json") }
func projectMarkerPath(projectPath string) string { return filepath.Join(projectPath, "deco.json") }
func decoDir(projectPath string) string           { return filepath.Join(projectPath, ".deco") }
func boardPath(projectPath string) string         { return filepath.Join(decoDir(projectPath), "board.json") }
func searchDBPath(projectPath string) string      { return filepath.Join(decoDir(projectPath), "search.db") }
