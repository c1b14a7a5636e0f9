package filters

import (
	"fmt"
	"strings"
)

// PadMode selects how pixels outside the image are synthesised.
type PadMode int

const (
	// PadZero treats outside pixels as 0 (MATLAB imfilter default).
	PadZero PadMode = iota
	// PadReplicate repeats the nearest edge pixel.
	PadReplicate
	// PadSymmetric mirrors the image including the edge pixel.
	PadSymmetric
)

func (m PadMode) String() string {
	switch m {
	case PadZero:
		return "zero"
	case PadReplicate:
		return "replicate"
	case PadSymmetric:
		return "symmetric"
	}
	return fmt.Sprintf("PadMode(%d)", int(m))
}

// ParsePadMode accepts "zero" (or "same", "constant"), "replicate" and "symmetric".
func ParsePadMode(s string) (PadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero", "same", "constant":
		return PadZero, nil
	case "replicate":
		return PadReplicate, nil
	case "symmetric":
		return PadSymmetric, nil
	}
	return PadZero, fmt.Errorf("unknown padding mode %q", s)
}

// sourceIndex maps a possibly out-of-range coordinate onto [0, n).
// ok is false when the pixel is outside the image under zero padding.
func sourceIndex(i, n int, mode PadMode) (idx int, ok bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case PadReplicate:
		if i < 0 {
			return 0, true
		}
		return n - 1, true
	case PadSymmetric:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i, true
	}
	return 0, false
}

// offsetTable precomputes, for every output position and kernel tap, the source index or -1.
// before is the number of padded pixels ahead of the first sample, (k-1)/2 as in TensorFlow
// "same" padding.
func offsetTable(n, k int, mode PadMode) []int {
	before := (k - 1) / 2
	table := make([]int, n*k)
	for i := 0; i < n; i++ {
		for t := 0; t < k; t++ {
			idx, ok := sourceIndex(i+t-before, n, mode)
			if !ok {
				idx = -1
			}
			table[i*k+t] = idx
		}
	}
	return table
}
