// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"
	"math"

	"github.com/gogpu/sceneframe/canvas"
	"github.com/gogpu/sceneframe/internal/cache"
)

// textMetrics is the shaped size of a single line of text.
type textMetrics struct {
	advance float64
	ascent  float64
	descent float64
	rtl     bool
}

func (m textMetrics) height() float64 { return m.ascent + m.descent }

type textKey struct {
	text string
	size int64 // 1/64 px
	bold bool
}

// maxMeasured bounds the measure cache.
const maxMeasured = 1024

// textShaper measures text runs with the shaper the painter draws with, so
// laid-out and drawn advances agree.
type textShaper struct {
	shaper *canvas.Shaper
	cache  *cache.Cache[textKey, textMetrics]
}

func newTextShaper() *textShaper {
	return &textShaper{
		shaper: canvas.NewShaper(),
		cache:  cache.New[textKey, textMetrics](maxMeasured),
	}
}

func (s *textShaper) measure(text string, size float64, bold bool) (textMetrics, error) {
	key := textKey{text: text, size: int64(math.Round(size * 64)), bold: bold}
	if m, ok := s.cache.Get(key); ok {
		return m, nil
	}
	line, err := s.shaper.Shape(text, float64(key.size)/64, bold)
	if err != nil {
		return textMetrics{}, fmt.Errorf("scene: shape text: %w", err)
	}
	m := textMetrics{
		advance: line.Advance,
		ascent:  line.Ascent,
		descent: line.Descent,
		rtl:     line.RTL,
	}
	s.cache.Set(key, m)
	return m, nil
}
