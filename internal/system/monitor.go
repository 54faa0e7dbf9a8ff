package system

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Monitor periodically samples this process's CPU and memory use and
// reports it through a log callback. The slideshow is meant to run for
// days; a slow leak in the decode path shows up here long before it kills
// the host.
type Monitor struct {
	proc     *process.Process
	interval time.Duration
	logf     func(format string, args ...any)
	stop     chan struct{}
	done     chan struct{}
}

// StartMonitor begins sampling at the given interval.
func StartMonitor(interval time.Duration, logf func(format string, args ...any)) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("process handle: %w", err)
	}

	m := &Monitor{
		proc:     proc,
		interval: interval,
		logf:     logf,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.run()
	return m, nil
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	cpu, err := m.proc.CPUPercent()
	if err != nil {
		return
	}
	mem, err := m.proc.MemoryInfo()
	if err != nil || mem == nil {
		return
	}
	m.logf("[*] cpu %.1f%% | rss %.1f MB", cpu, float64(mem.RSS)/(1024*1024))
}

// Stop halts sampling and waits for the loop to exit.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}
