package catalog

import (
	"math"
	"strconv"
)

// Paginate returns items[start-1:end] where start and end are 1-based
// query values. A value that is not a plain digit string falls back to the
// whole list. Bounds follow Python slice rules, so start=0 yields the last
// item and a reversed range is empty.
func Paginate[T any](items []T, start, end string) []T {
	lo, hi := Bounds(len(items), start, end)
	return items[lo:hi]
}

// Bounds resolves the slice bounds Paginate uses for a list of length n.
func Bounds(n int, start, end string) (int, int) {
	s := 1
	if isDigits(start) {
		s = atoiClamped(start)
	}
	e := n
	if isDigits(end) {
		e = atoiClamped(end)
	}

	lo := clampIndex(s-1, n)
	hi := clampIndex(e, n)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoiClamped(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt
	}
	return v
}
