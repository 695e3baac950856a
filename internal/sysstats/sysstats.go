// Package sysstats reports host and process CPU/memory usage for
// GET /system_stats.
//
// CPU percentages are computed against the previous sample, so a call never
// blocks to measure. The first call after start reports 0.
package sysstats

import (
	"fmt"
	"math"
	"sync"
	"time"

	"chatd/pkg/types"
)

// Sample is one raw reading of the counters.
type Sample struct {
	At time.Time
	// CPUBusy and CPUTotal are cumulative host CPU seconds across all cores.
	CPUBusy  float64
	CPUTotal float64
	// ProcCPU is cumulative user+system seconds of this process.
	ProcCPU      float64
	MemTotal     uint64
	MemAvailable uint64
	ProcRSS      uint64
}

// Sampler reads the current counters.
type Sampler interface {
	Sample() (Sample, error)
}

// Reporter turns successive samples into SystemStats.
type Reporter struct {
	sampler Sampler

	mu   sync.Mutex
	prev *Sample
}

// New returns a Reporter over s.
func New(s Sampler) *Reporter {
	return &Reporter{sampler: s}
}

// Get takes a sample and reports usage since the previous call.
func (r *Reporter) Get() (types.SystemStats, error) {
	cur, err := r.sampler.Sample()
	if err != nil {
		return types.SystemStats{}, fmt.Errorf("sample system stats: %w", err)
	}

	r.mu.Lock()
	prev := r.prev
	r.prev = &cur
	r.mu.Unlock()

	var out types.SystemStats
	if prev != nil {
		if d := cur.CPUTotal - prev.CPUTotal; d > 0 {
			out.Global.CPUPercent = round1(clamp((cur.CPUBusy-prev.CPUBusy)/d*100, 0, 100))
		}
		if wall := cur.At.Sub(prev.At).Seconds(); wall > 0 {
			out.Process.CPUPercent = round1(math.Max(0, (cur.ProcCPU-prev.ProcCPU)/wall*100))
		}
	}

	used := uint64(0)
	if cur.MemTotal > cur.MemAvailable {
		used = cur.MemTotal - cur.MemAvailable
	}
	out.Global.RAMUsedBytes = used
	out.Global.RAMTotalBytes = cur.MemTotal
	if cur.MemTotal > 0 {
		out.Global.RAMPercent = round1(float64(used) / float64(cur.MemTotal) * 100)
	}
	out.Global.RAMGB = fmt.Sprintf("%.1f/%.1f GB", gb(used), gb(cur.MemTotal))

	out.Process.RAMUsedBytes = cur.ProcRSS
	out.Process.RAMGB = fmt.Sprintf("%.2f GB", gb(cur.ProcRSS))
	return out, nil
}

func gb(b uint64) float64 { return float64(b) / (1 << 30) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func clamp(v, lo, hi float64) float64 { return math.Min(hi, math.Max(lo, v)) }
