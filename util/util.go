package util

import (
	"math"
	"sort"
	"time"
)

// Converts a duration to fractional milliseconds
func Millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// Converts a byte count to megabytes
func MB(bytes int64) float64 {
	return float64(bytes) / 1024 / 1024
}

// Computes a percentile (0-100) from an array. The array is sorted in place.
func Percentile(a []float64, p int) float64 {
	if len(a) <= 1 {
		return math.NaN()
	}

	sort.Float64s(a)

	r := (float64(p)/100)*float64(len(a)) - 1
	if r < 0 {
		return a[0]
	}

	if r == float64(int(r)) {
		return a[int(r)]
	}
	ri := int(r)
	rf := r - float64(ri)
	return a[ri] + rf*(a[ri+1]-a[ri])
}

// Splits [0, total) into consecutive chunks of at most size elements
func Chunks(total int, size int) [][2]int {
	if size <= 0 {
		size = total
	}
	chunks := [][2]int{}
	for start := 0; start < total; start += size {
		chunks = append(chunks, [2]int{start, min(start+size, total)})
	}
	return chunks
}

const alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Returns a random upper-case alphanumeric string with 'length' bytes.
// intn must return a value in [0, n).
func RandomString(intn func(int) int, length int) string {
	s := make([]byte, length)
	for i := 0; i < length; i++ {
		s[i] = alphanumerics[intn(len(alphanumerics))]
	}
	return string(s)
}
