// Package display renders task state onto character displays.
//
// A LineRenderer owns one physical display and remembers the text of every
// row, so a write only touches rows whose text changed. Several panels can
// share a renderer, each owning a band of rows.
package display

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Display is a character display addressed by row.
type Display interface {
	WriteLine(row int, text string) error
	Clear() error
}

// LineRenderer writes rows to a display, skipping rows that already show the
// requested text. It is safe for concurrent use.
type LineRenderer struct {
	mu    sync.Mutex
	d     Display
	width int
	rows  []string
	known []bool
}

// NewLineRenderer creates a renderer for a display of rows x width
// characters. Text is padded or truncated to width; width 0 leaves it as is.
func NewLineRenderer(d Display, rows, width int) *LineRenderer {
	return &LineRenderer{
		d:     d,
		width: width,
		rows:  make([]string, rows),
		known: make([]bool, rows),
	}
}

// Rows returns the number of rows.
func (r *LineRenderer) Rows() int { return len(r.rows) }

// Show writes lines starting at row first. Rows whose text is unchanged are
// skipped. A row that fails to write is forgotten, so the next Show retries it.
func (r *LineRenderer) Show(first int, lines ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if first < 0 || first+len(lines) > len(r.rows) {
		return fmt.Errorf("display: rows %d..%d out of range (%d rows)", first, first+len(lines)-1, len(r.rows))
	}
	for i, text := range lines {
		row := first + i
		text = r.fit(text)
		if r.known[row] && r.rows[row] == text {
			continue
		}
		if err := r.d.WriteLine(row, text); err != nil {
			r.known[row] = false
			return fmt.Errorf("display: write row %d: %w", row, err)
		}
		r.rows[row] = text
		r.known[row] = true
	}
	return nil
}

// Clear blanks the display and forgets every row.
func (r *LineRenderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.known {
		r.known[i] = false
	}
	return r.d.Clear()
}

func (r *LineRenderer) fit(s string) string {
	if r.width <= 0 {
		return s
	}
	if len(s) > r.width {
		return s[:r.width]
	}
	return s + strings.Repeat(" ", r.width-len(s))
}

// Panel renders values of one type into a band of rows.
type Panel[T any] struct {
	lr     *LineRenderer
	first  int
	format func(T) []string
}

// NewPanel creates a panel writing format(v) from row first.
func NewPanel[T any](lr *LineRenderer, first int, format func(T) []string) *Panel[T] {
	return &Panel[T]{lr: lr, first: first, format: format}
}

// Render shows v.
func (p *Panel[T]) Render(ctx context.Context, v T) error {
	return p.lr.Show(p.first, p.format(v)...)
}
