package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/deco-run/deco-core/internal/apperr"
)

// BoardItem is one placed image on the canvas. Groups and annotations are
// opaque to this package — they round-trip through board.json untouched.
type BoardItem struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Viewport is the canvas pan/zoom state.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Board is the full board.json document. Groups and annotations are kept
// as raw JSON so this package never needs to know their shape.
type Board struct {
	Version     int               `json:"version"`
	Viewport    Viewport          `json:"viewport"`
	Items       []BoardItem       `json:"items"`
	Groups      []json.RawMessage `json:"groups,omitempty"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
}

// MoveBoardItem reads boardPath, finds the item named filename, sets its
// x/y, and writes the document back atomically and pretty-printed. Returns
// a distinguishable apperr.CategoryNotFound when the file is missing or the
// name is not found, and apperr.CategoryValidation when the file contents
// are not a valid board document.
func MoveBoardItem(boardPath, filename string, x, y float64) error {
	raw, err := os.ReadFile(boardPath)
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.Newf(apperr.CategoryNotFound, "board file not found: %s", boardPath)
		}
		return fmt.Errorf("read board file: %w", err)
	}

	var board Board
	if err := json.Unmarshal(raw, &board); err != nil {
		return apperr.Newf(apperr.CategoryValidation, "invalid board schema in %s: %v", boardPath, err)
	}

	found := false
	for i := range board.Items {
		if board.Items[i].Name == filename {
			board.Items[i].X = x
			board.Items[i].Y = y
			found = true
			break
		}
	}
	if !found {
		return apperr.Newf(apperr.CategoryNotFound, "board item not found: %s", filename)
	}

	encoded, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board file: %w", err)
	}

	if err := atomic.WriteFile(boardPath, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("write board file: %w", err)
	}
	return nil
}
