// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

// alphaRuns is a run-length encoded row of coverage values. runs[i] is the
// length of the run starting at pixel i and alpha[i] its coverage; a zero
// run length terminates the row.
type alphaRuns struct {
	runs  []uint16
	alpha []uint8
}

func newAlphaRuns(width int) *alphaRuns {
	width = max(width, 1)
	ar := &alphaRuns{
		runs:  make([]uint16, width+1),
		alpha: make([]uint8, width+1),
	}
	ar.reset(width)
	return ar
}

// reset makes the row a single transparent run.
func (ar *alphaRuns) reset(width int) {
	width = min(max(width, 1), 0xffff)
	ar.runs[0] = uint16(width) //nolint:gosec // clamped above
	ar.runs[width] = 0
	ar.alpha[0] = 0
}

func (ar *alphaRuns) empty() bool {
	return ar.runs[0] == 0 || (ar.alpha[0] == 0 && ar.runs[ar.runs[0]] == 0)
}

// saturate maps 256 to 255.
func saturate(v uint16) uint8 {
	v = min(v, 256)
	return uint8(v - v>>8) //nolint:gosec // at most 255
}

// add accumulates a span covering startAlpha of pixel x, middle pixels at
// maxValue each, then stopAlpha of the next pixel. offsetX is where the
// previous span on the same sub-row ended; the return value is the hint for
// the next one.
func (ar *alphaRuns) add(x int, startAlpha uint8, middle int, stopAlpha, maxValue uint8, offsetX int) int {
	if x < offsetX {
		return offsetX
	}
	runsOff := offsetX
	alphaOff := offsetX
	last := offsetX
	x -= offsetX

	if startAlpha != 0 {
		ar.split(runsOff, x, 1)
		ar.alpha[alphaOff+x] = saturate(uint16(ar.alpha[alphaOff+x]) + uint16(startAlpha))
		runsOff += x + 1
		alphaOff += x + 1
		x = 0
	}

	if middle > 0 {
		ar.split(runsOff, x, middle)
		runsOff += x
		alphaOff += x
		x = 0
		for middle > 0 {
			ar.alpha[alphaOff] = saturate(uint16(ar.alpha[alphaOff]) + uint16(maxValue))
			n := int(ar.runs[runsOff])
			if n <= 0 {
				break
			}
			n = min(n, middle)
			runsOff += n
			alphaOff += n
			middle -= n
		}
		last = alphaOff
	}

	if stopAlpha != 0 {
		ar.split(runsOff, x, 1)
		alphaOff += x
		ar.alpha[alphaOff] = saturate(uint16(ar.alpha[alphaOff]) + uint16(stopAlpha))
		last = alphaOff
	}
	return last
}

// split breaks runs so that boundaries exist at off+x and off+x+count.
func (ar *alphaRuns) split(off, x, count int) {
	if count <= 0 {
		return
	}

	at := off
	for rest := x; rest > 0; {
		n := int(ar.runs[at])
		if n <= 0 {
			return
		}
		if rest < n {
			ar.alpha[at+rest] = ar.alpha[at]
			ar.runs[at] = uint16(rest)          //nolint:gosec // rest < n
			ar.runs[at+rest] = uint16(n - rest) //nolint:gosec // positive, below n
			break
		}
		at += n
		rest -= n
	}

	at = off + x
	for rest := count; ; {
		n := int(ar.runs[at])
		if n <= 0 {
			return
		}
		if rest < n {
			ar.alpha[at+rest] = ar.alpha[at]
			ar.runs[at] = uint16(rest)          //nolint:gosec // rest < n
			ar.runs[at+rest] = uint16(n - rest) //nolint:gosec // positive, below n
			return
		}
		rest -= n
		if rest == 0 {
			return
		}
		at += n
	}
}
