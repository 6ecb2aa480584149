// Package domain holds the plain data types shared across store, ops, and
// storage so those packages can depend on a common leaf without importing
// each other.
package domain

import "time"

// Image is the metadata record for one image, keyed by its absolute path.
type Image struct {
	Path        string   `json:"path"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Style       []string `json:"style"`
	Mood        []string `json:"mood"`
	Colors      []string `json:"colors"`
	Era         string   `json:"era"`
}

// Embedding is one embedding row: model id, dense vector, creation time.
type Embedding struct {
	Path      string    `json:"path"`
	Model     string    `json:"model"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"createdAt"`
}

// SimilarResult is one entry of a similarity search, whichever backend
// produced it (vector cosine or tag Jaccard).
type SimilarResult struct {
	Path        string   `json:"imagePath"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TagCount is one row of get_all_tags.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SearchResult is one row of search_text.
type SearchResult struct {
	Path        string   `json:"path"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Score       float64  `json:"score"`
}

// ImagePatch is the optional-fields update surface for metadata
// merge-on-update: a nil field means "leave unchanged". Colors is
// intentionally absent — it is never part of the update surface and is
// always copied through unchanged.
type ImagePatch struct {
	Name        *string
	Description *string
	Tags        []string
	Style       []string
	Mood        []string
	Era         *string
}

// MergeImage applies patch on top of existing, leaving any nil/unset field
// unchanged and always carrying Colors through untouched.
func MergeImage(existing Image, patch ImagePatch) Image {
	merged := existing

	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Tags != nil {
		merged.Tags = patch.Tags
	}
	if patch.Style != nil {
		merged.Style = patch.Style
	}
	if patch.Mood != nil {
		merged.Mood = patch.Mood
	}
	if patch.Era != nil {
		merged.Era = *patch.Era
	}

	return merged
}
