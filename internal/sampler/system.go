// internal/sampler/system.go
package sampler

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemProvider reads this host's stats through gopsutil
type SystemProvider struct {
	cpus     []float64
	used     uint64
	total    uint64
	hostname string
}

// NewSystemProvider creates a provider with nothing read yet
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

// RefreshCPU resets the per-core baseline; the percentages it computes are discarded
func (p *SystemProvider) RefreshCPU(ctx context.Context) error {
	_, err := cpu.PercentWithContext(ctx, 0, true)
	return err
}

// RefreshAll reads per-core usage since the previous refresh, memory and hostname
func (p *SystemProvider) RefreshAll(ctx context.Context) error {
	cpus, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}

	p.cpus = cpus
	p.used = vm.Used
	p.total = vm.Total
	if name, err := os.Hostname(); err == nil {
		p.hostname = name
	}
	return nil
}

func (p *SystemProvider) CPUUsages() []float64 { return p.cpus }
func (p *SystemProvider) UsedMemory() uint64   { return p.used }
func (p *SystemProvider) TotalMemory() uint64  { return p.total }
func (p *SystemProvider) Hostname() string     { return p.hostname }

// HostInfo is the static description printed at startup
type HostInfo struct {
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Hostname        string
	CPUs            int
	MemoryTotal     uint64
	SwapTotal       uint64
}

// Describe reads the host's static properties
func Describe(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return HostInfo{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}

	return HostInfo{
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Hostname:        info.Hostname,
		CPUs:            cpus,
		MemoryTotal:     vm.Total,
		SwapTotal:       swap.Total,
	}, nil
}
