package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestMergeImageAppliesOnlyNonNilFields(t *testing.T) {
	existing := Image{
		Path:        "a",
		Name:        "old name",
		Description: "old description",
		Tags:        []string{"old"},
		Colors:      []string{"#fff"},
		Era:         "old era",
	}

	patch := ImagePatch{
		Name: strPtr("new name"),
		Tags: []string{"new"},
	}

	merged := MergeImage(existing, patch)
	assert.Equal(t, "new name", merged.Name)
	assert.Equal(t, []string{"new"}, merged.Tags)
	assert.Equal(t, "old description", merged.Description)
	assert.Equal(t, "old era", merged.Era)
	assert.Equal(t, []string{"#fff"}, merged.Colors, "colors are never patched directly")
}

func TestMergeImageEmptyPatchIsNoop(t *testing.T) {
	existing := Image{Path: "a", Name: "name", Description: "desc"}
	merged := MergeImage(existing, ImagePatch{})
	assert.Equal(t, existing, merged)
}
