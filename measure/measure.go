// Package measure times an operation and samples the heap around it.
package measure

import (
	"runtime"
	"time"

	"clinicbench/util"

	zlog "github.com/rs/zerolog/log"
)

type Memory struct {
	// Heap bytes allocated by the operation. Negative when a collection ran
	// while it was executing; the value is not corrected.
	Used int64 `json:"used"`
	// Heap bytes obtained from the OS after the operation
	Total int64 `json:"total"`
}

type Stats struct {
	DurationMs float64
	Memory     Memory
}

func heap() (alloc int64, sys int64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.HeapAlloc), int64(m.HeapSys)
}

// Runs op and returns its result untouched, together with the elapsed wall
// time and the heap delta. When op fails its error is returned as is and no
// stats are produced.
func Measure[T any](label string, op func() (T, error)) (T, Stats, error) {
	before, _ := heap()
	start := time.Now()

	result, err := op()

	elapsed := time.Since(start)
	if err != nil {
		return result, Stats{}, err
	}
	after, total := heap()

	stats := Stats{
		DurationMs: util.Millis(elapsed),
		Memory:     Memory{Used: after - before, Total: total},
	}
	zlog.Debug().Str("operation", label).Float64("durationMs", stats.DurationMs).
		Float64("memoryMB", util.MB(stats.Memory.Used)).Msg("Measured")

	return result, stats, nil
}
