package gaze

import "fmt"

// Zone is one of the three horizontal screen bands.
type Zone int

const (
	ZoneCenter Zone = iota
	ZoneLeft
	ZoneRight
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "center"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (z *Zone) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left":
		*z = ZoneLeft
	case "right":
		*z = ZoneRight
	case "center":
		*z = ZoneCenter
	default:
		return fmt.Errorf("unknown zone %q", string(b))
	}
	return nil
}

// DefaultBands is the relative width of the left, center and right bands.
var DefaultBands = [3]float64{347, 677, 347}

// Layout splits a screen width into three bands.
type Layout struct {
	Width     float64
	LeftEdge  float64
	RightEdge float64
}

// NewLayout builds a layout for width using the given band weights.
// Non-positive weights fall back to DefaultBands.
func NewLayout(width float64, bands [3]float64) Layout {
	total := bands[0] + bands[1] + bands[2]
	if bands[0] <= 0 || bands[1] <= 0 || bands[2] <= 0 {
		bands = DefaultBands
		total = bands[0] + bands[1] + bands[2]
	}
	return Layout{
		Width:     width,
		LeftEdge:  width * bands[0] / total,
		RightEdge: width * (bands[0] + bands[1]) / total,
	}
}

// ZoneAt returns the band containing x.
func (l Layout) ZoneAt(x float64) Zone {
	switch {
	case x < l.LeftEdge:
		return ZoneLeft
	case x >= l.RightEdge:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

// Center returns the x coordinate of a band's center.
func (l Layout) Center(z Zone) float64 {
	switch z {
	case ZoneLeft:
		return l.LeftEdge / 2
	case ZoneRight:
		return (l.RightEdge + l.Width) / 2
	default:
		return (l.LeftEdge + l.RightEdge) / 2
	}
}
