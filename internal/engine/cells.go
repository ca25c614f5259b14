package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"inkmemory/internal/models"
)

// widgetTrigger is the character that, typed immediately before a widget
// insertion, is consumed by it.
const widgetTrigger = '@'

func newTextCell(content string) models.Cell {
	return models.Cell{
		ID:      uuid.New().String(),
		Type:    models.CellTypeText,
		Content: content,
	}
}

func newWidgetCell(widgetType string, data json.RawMessage) models.Cell {
	return models.Cell{
		ID:         uuid.New().String(),
		Type:       models.CellTypeWidget,
		WidgetType: widgetType,
		Data:       data,
	}
}

// mergeCells enforces the structural invariants after every mutation:
// adjacent text cells fuse into one (keeping the first cell's identity)
// and the list is never empty.
func mergeCells(cells []models.Cell) []models.Cell {
	merged := cells[:0]
	for _, cell := range cells {
		if len(merged) > 0 && cell.IsText() && merged[len(merged)-1].IsText() {
			merged[len(merged)-1].Content += cell.Content
			continue
		}
		merged = append(merged, cell)
	}
	if len(merged) == 0 {
		merged = append(merged, newTextCell(""))
	}
	return merged
}

func (e *Engine) cellIndex(cellID string) (int, error) {
	for i, cell := range e.state.Cells {
		if cell.ID == cellID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("cell %s not found", cellID)
}

// spliceCells replaces the cell at index i with replacement cells and runs
// the merge pass.
func (e *Engine) spliceCells(i int, replacement ...models.Cell) {
	cells := make([]models.Cell, 0, len(e.state.Cells)-1+len(replacement))
	cells = append(cells, e.state.Cells[:i]...)
	cells = append(cells, replacement...)
	cells = append(cells, e.state.Cells[i+1:]...)
	e.state.Cells = mergeCells(cells)
}

// soleOnLine reports whether the rune at position pos is the only
// non-whitespace content of its line.
func soleOnLine(runes []rune, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			break
		}
		if !strings.ContainsRune(" \t", runes[i]) {
			return false
		}
	}
	for i := pos + 1; i < len(runes); i++ {
		if runes[i] == '\n' {
			break
		}
		if !strings.ContainsRune(" \t", runes[i]) {
			return false
		}
	}
	return true
}

// insertWidgetAtCursorLocked implements the cursor-position insertion.
// If the character immediately before the cursor is the trigger character,
// the trigger is stripped (along with the preceding line break when the
// trigger is alone on its line) and the insertion falls through to the
// line-based path. Otherwise the cell splits at the exact cursor offset.
func (e *Engine) insertWidgetAtCursorLocked(cellID string, cursor int, widgetType string, data json.RawMessage) error {
	i, err := e.cellIndex(cellID)
	if err != nil {
		return err
	}
	cell := e.state.Cells[i]
	if !cell.IsText() {
		return fmt.Errorf("cell %s is not a text cell", cellID)
	}

	runes := []rune(cell.Content)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}

	if cursor > 0 && runes[cursor-1] == widgetTrigger {
		at := cursor - 1
		cut := at
		if soleOnLine(runes, at) && cut > 0 && runes[cut-1] == '\n' {
			cut--
		}
		runes = append(runes[:cut], runes[at+1:]...)
		e.state.Cells[i].Content = string(runes)
		return e.insertWidgetAfterLineLocked(cellID, cut, widgetType, data)
	}

	before := string(runes[:cursor])
	after := string(runes[cursor:])

	replacement := make([]models.Cell, 0, 3)
	if before != "" {
		first := cell
		first.Content = before
		replacement = append(replacement, first)
	}
	replacement = append(replacement, newWidgetCell(widgetType, data))
	replacement = append(replacement, newTextCell(after))
	e.spliceCells(i, replacement...)
	return nil
}

// insertWidgetAfterLineLocked splits the target text cell at the end of
// the line containing offset into up to three cells: leading text (if
// non-empty), the widget, and trailing text. The trailing cell is kept
// even when empty if this is the last cell, so writing can continue after
// the widget.
func (e *Engine) insertWidgetAfterLineLocked(cellID string, offset int, widgetType string, data json.RawMessage) error {
	i, err := e.cellIndex(cellID)
	if err != nil {
		return err
	}
	cell := e.state.Cells[i]
	if !cell.IsText() {
		return fmt.Errorf("cell %s is not a text cell", cellID)
	}

	runes := []rune(cell.Content)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}

	lineEnd := len(runes)
	for j := offset; j < len(runes); j++ {
		if runes[j] == '\n' {
			lineEnd = j
			break
		}
	}

	leading := string(runes[:lineEnd])
	trailing := string(runes[lineEnd:])

	replacement := make([]models.Cell, 0, 3)
	if leading != "" {
		first := cell
		first.Content = leading
		replacement = append(replacement, first)
	}
	replacement = append(replacement, newWidgetCell(widgetType, data))
	if trailing != "" || i == len(e.state.Cells)-1 {
		replacement = append(replacement, newTextCell(trailing))
	}
	e.spliceCells(i, replacement...)
	return nil
}

func (e *Engine) deleteCellLocked(cellID string) error {
	i, err := e.cellIndex(cellID)
	if err != nil {
		return err
	}
	cells := append(e.state.Cells[:i:i], e.state.Cells[i+1:]...)
	// The merge pass matters here: removing a widget between two text
	// cells must fuse them, and an emptied list reseeds one text cell.
	e.state.Cells = mergeCells(cells)
	return nil
}
