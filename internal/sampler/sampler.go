// internal/sampler/sampler.go
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalnine/loadwatch/internal/protocol"
)

// ErrProviderUnavailable means no reading could be taken this tick
var ErrProviderUnavailable = errors.New("system stats unavailable")

// StatsProvider is the source of raw OS metrics.
// Getters return what the last RefreshAll read; they must be cheap.
type StatsProvider interface {
	RefreshCPU(ctx context.Context) error
	RefreshAll(ctx context.Context) error
	CPUUsages() []float64
	UsedMemory() uint64
	TotalMemory() uint64
	Hostname() string
}

// Sampler turns provider readings into snapshots.
//
// CPU percent is only meaningful as a delta, so a tick is two refreshes:
// Prime before waiting, Sample after.
type Sampler struct {
	provider StatsProvider
	hostname string
	now      func() time.Time
}

// New creates a sampler. A non-empty hostname overrides the provider's.
func New(provider StatsProvider, hostname string) *Sampler {
	return &Sampler{
		provider: provider,
		hostname: hostname,
		now:      time.Now,
	}
}

// Prime refreshes the CPU counters so the next Sample measures the interval since now
func (s *Sampler) Prime(ctx context.Context) error {
	if err := s.provider.RefreshCPU(ctx); err != nil {
		return fmt.Errorf("%w: refresh cpu: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// Sample refreshes all stats and returns the current snapshot
func (s *Sampler) Sample(ctx context.Context) (protocol.Snapshot, error) {
	if err := s.provider.RefreshAll(ctx); err != nil {
		return protocol.Snapshot{}, fmt.Errorf("%w: refresh: %v", ErrProviderUnavailable, err)
	}

	usages := s.provider.CPUUsages()
	if len(usages) == 0 {
		return protocol.Snapshot{}, fmt.Errorf("%w: no cpu readings", ErrProviderUnavailable)
	}
	total := s.provider.TotalMemory()
	if total == 0 {
		return protocol.Snapshot{}, fmt.Errorf("%w: total memory is zero", ErrProviderUnavailable)
	}

	hostname := s.hostname
	if hostname == "" {
		hostname = s.provider.Hostname()
	}

	return protocol.Snapshot{
		Timestamp:   s.now(),
		Hostname:    hostname,
		CPUUsages:   append([]float64(nil), usages...),
		MemoryUsed:  s.provider.UsedMemory(),
		MemoryTotal: total,
	}, nil
}

// IsUnavailable checks if err means the provider could not produce a reading
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
