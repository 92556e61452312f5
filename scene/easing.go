// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "math"

// easingFunc maps animation progress in [0, 1] to eased progress.
type easingFunc func(p float64) float64

var easings = map[string]easingFunc{
	"Linear": func(p float64) float64 { return p },
	"InQuad": func(p float64) float64 { return p * p },
	"OutQuad": func(p float64) float64 {
		return -p * (p - 2)
	},
	"InOutQuad": func(p float64) float64 {
		if p < 0.5 {
			return 2 * p * p
		}
		return -2*p*p + 4*p - 1
	},
	"InCubic": func(p float64) float64 { return p * p * p },
	"OutCubic": func(p float64) float64 {
		q := p - 1
		return q*q*q + 1
	},
	"InOutCubic": func(p float64) float64 {
		if p < 0.5 {
			return 4 * p * p * p
		}
		q := -2*p + 2
		return 1 - q*q*q/2
	},
	"InSine":    func(p float64) float64 { return 1 - math.Cos(p*math.Pi/2) },
	"OutSine":   func(p float64) float64 { return math.Sin(p * math.Pi / 2) },
	"InOutSine": func(p float64) float64 { return -(math.Cos(math.Pi*p) - 1) / 2 },
}

// lookupEasing accepts names with or without the "Easing." prefix.
func lookupEasing(name string) (easingFunc, bool) {
	if name == "" {
		return easings["Linear"], true
	}
	if len(name) > 7 && name[:7] == "Easing." {
		name = name[7:]
	}
	f, ok := easings[name]
	return f, ok
}
