package media

import "strings"

// Fit controls how the element is scaled into its container box.
type Fit string

const (
	FitContain Fit = "contain"
	FitCover   Fit = "cover"
	FitFill    Fit = "fill"
)

// ParseFit returns the Fit for s, defaulting to FitContain for unknown values.
func ParseFit(s string) Fit {
	switch Fit(strings.ToLower(strings.TrimSpace(s))) {
	case FitCover:
		return FitCover
	case FitFill:
		return FitFill
	default:
		return FitContain
	}
}

// Options is the placement applied each time an element is attached.
type Options struct {
	Position string // CSS style object-position, e.g. "center bottom"
	Fit      Fit
	Scale    float64
}

// Normalize fills defaults: centered, contain, scale 1.
func (o Options) Normalize() Options {
	if strings.TrimSpace(o.Position) == "" {
		o.Position = "center"
	}
	if o.Fit == "" {
		o.Fit = FitContain
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}
