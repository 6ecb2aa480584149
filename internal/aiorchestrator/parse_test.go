package aiorchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponseDirectJSON(t *testing.T) {
	raw := `{"description":"a cat","tags":["cat","cute"],"style":["photo"],"mood":["calm"],"colors":["#ffffff"],"era":"2020s"}`
	a := ParseResponse(raw)
	assert.Equal(t, "a cat", a.Description)
	assert.Equal(t, []string{"cat", "cute"}, a.Tags)
	assert.Equal(t, "2020s", a.Era)
}

func TestParseResponseFencedJSON(t *testing.T) {
	raw := "Sure, here you go:\n```json\n{\"description\":\"a dog\",\"tags\":[\"dog\"]}\n```\nLet me know if you need more."
	a := ParseResponse(raw)
	assert.Equal(t, "a dog", a.Description)
	assert.Equal(t, []string{"dog"}, a.Tags)
}

func TestParseResponseBraceMatched(t *testing.T) {
	raw := `The analysis is: {"description": "a { nested } brace test", "tags": ["weird"]} -- hope that helps`
	a := ParseResponse(raw)
	assert.Equal(t, "a { nested } brace test", a.Description)
	assert.Equal(t, []string{"weird"}, a.Tags)
}

func TestParseResponseFallsBackToRawText(t *testing.T) {
	raw := "this is not json at all"
	a := ParseResponse(raw)
	assert.Equal(t, "this is not json at all", a.Description)
	assert.Empty(t, a.Tags)
}

func TestParseResponseEraNullBecomesEmptyString(t *testing.T) {
	raw := `{"description":"x","era":null}`
	a := ParseResponse(raw)
	assert.Equal(t, "", a.Era)
}
