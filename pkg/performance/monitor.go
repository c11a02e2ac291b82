// Package performance collects process-level resource usage for the
// runtime's analytics surfaces. The snapshot feeds the pool registry's
// aggregate report and the CLI stats command.
package performance

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot captures the runtime's resource usage at a point in time.
type Snapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	CPUPercent     float64   `json:"cpu_percent"`
	RSSBytes       uint64    `json:"rss_bytes"`
	HeapAllocBytes uint64    `json:"heap_alloc_bytes"`
	NumGoroutines  int       `json:"num_goroutines"`
	NumGC          uint32    `json:"num_gc"`
}

// Monitor reads process statistics for the current PID.
type Monitor struct {
	proc *process.Process
}

// NewMonitor creates a monitor bound to the current process. Platforms
// where gopsutil cannot attach still get the Go-runtime portion of the
// snapshot.
func NewMonitor() *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return &Monitor{}
	}
	return &Monitor{proc: proc}
}

// Capture returns a current snapshot. OS-level fields are best-effort and
// left zero when unavailable.
func (m *Monitor) Capture() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := Snapshot{
		Timestamp:      time.Now(),
		HeapAllocBytes: memStats.HeapAlloc,
		NumGoroutines:  runtime.NumGoroutine(),
		NumGC:          memStats.NumGC,
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
		if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
			snap.RSSBytes = mem.RSS
		}
	}

	return snap
}
