package tracker

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rect is a section's measured vertical extent.
type Rect struct {
	Top    float64
	Height float64
}

// Layout is a Viewport built from geometry measured elsewhere (for example
// by the browser and posted back). ScrollTo records the requested target.
type Layout struct {
	Y     float64
	Rects map[string]Rect

	scrolled bool
	target   float64
}

func (l *Layout) ScrollY() float64 { return l.Y }

func (l *Layout) Bounds(id string) (float64, float64, bool) {
	r, ok := l.Rects[id]
	return r.Top, r.Height, ok
}

func (l *Layout) ScrollTo(top float64) {
	l.scrolled = true
	l.target = top
}

// Target reports the last ScrollTo request.
func (l *Layout) Target() (top float64, ok bool) {
	return l.target, l.scrolled
}

// ParseGeometry parses "id:top:height" entries separated by commas.
// Empty input yields an empty map.
func ParseGeometry(s string) (map[string]Rect, error) {
	rects := make(map[string]Rect)
	s = strings.TrimSpace(s)
	if s == "" {
		return rects, nil
	}
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("malformed geometry entry %q", entry)
		}
		top, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("geometry %s top: %w", parts[0], err)
		}
		height, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("geometry %s height: %w", parts[0], err)
		}
		if !finite(top) || !finite(height) {
			return nil, fmt.Errorf("geometry %s: non-finite value", parts[0])
		}
		if height < 0 {
			return nil, fmt.Errorf("geometry %s: negative height", parts[0])
		}
		rects[parts[0]] = Rect{Top: top, Height: height}
	}
	return rects, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
