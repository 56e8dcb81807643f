// Package progress renders the batch-level progress indicator spec.md
// §4.5 calls for ("emitted to a progress indicator when row count > 1"),
// grounded on the original implementation's tqdm usage in
// original_source/controller/fsapi.py.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

const barWidth = 30

// Bar renders a single-line "[===    ] n/total label" indicator, redrawn
// in place with a carriage return. Safe for concurrent Advance calls.
type Bar struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	current int
	label   string
	enabled bool
}

// New returns a Bar for total steps. When total <= 1 the bar renders
// nothing on Advance/Finish — matching spec.md's "when row count > 1".
func New(w io.Writer, total int, label string) *Bar {
	return &Bar{w: w, total: total, label: label, enabled: total > 1}
}

// Advance increments the current step by one and redraws the bar.
func (b *Bar) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return
	}
	b.current++
	b.render()
}

// Finish draws a final, complete bar and moves to a new line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return
	}
	b.current = b.total
	b.render()
	fmt.Fprintln(b.w)
}

func (b *Bar) render() {
	fraction := float64(b.current) / float64(b.total)
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(barWidth))
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	label := b.label
	if width := runewidth.StringWidth(label); width > 40 {
		label = runewidth.Truncate(label, 40, "...")
	}

	line := fmt.Sprintf("\r[%s] %d/%d %s", color.FgGreen.Render(bar), b.current, b.total, label)
	fmt.Fprint(b.w, line)
}
