package sysstats

import (
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// ProcSampler reads counters from /proc.
type ProcSampler struct {
	fs procfs.FS
}

// NewProcSampler opens the default /proc mount.
func NewProcSampler() (*ProcSampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	return &ProcSampler{fs: fs}, nil
}

// NewProcSamplerAt reads from a procfs mounted at mountPoint.
func NewProcSamplerAt(mountPoint string) (*ProcSampler, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", mountPoint, err)
	}
	return &ProcSampler{fs: fs}, nil
}

func (p *ProcSampler) Sample() (Sample, error) {
	s := Sample{At: time.Now()}

	st, err := p.fs.Stat()
	if err != nil {
		return s, fmt.Errorf("read stat: %w", err)
	}
	c := st.CPUTotal
	idle := c.Idle + c.Iowait
	// guest time is already included in user/nice
	busy := c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	s.CPUBusy = busy
	s.CPUTotal = busy + idle

	mi, err := p.fs.Meminfo()
	if err != nil {
		return s, fmt.Errorf("read meminfo: %w", err)
	}
	if mi.MemTotal != nil {
		s.MemTotal = *mi.MemTotal * 1024
	}
	switch {
	case mi.MemAvailable != nil:
		s.MemAvailable = *mi.MemAvailable * 1024
	case mi.MemFree != nil:
		s.MemAvailable = *mi.MemFree * 1024
	}

	self, err := p.fs.Self()
	if err != nil {
		return s, fmt.Errorf("open self: %w", err)
	}
	ps, err := self.Stat()
	if err != nil {
		return s, fmt.Errorf("read self stat: %w", err)
	}
	s.ProcCPU = ps.CPUTime()
	if rss := ps.ResidentMemory(); rss > 0 {
		s.ProcRSS = uint64(rss)
	}
	return s, nil
}
