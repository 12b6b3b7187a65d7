// internal/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/signalnine/loadwatch/internal/config"
	"github.com/signalnine/loadwatch/internal/detector"
	"github.com/signalnine/loadwatch/internal/dispatch"
	"github.com/signalnine/loadwatch/internal/notify"
	"github.com/signalnine/loadwatch/internal/protocol"
	"github.com/signalnine/loadwatch/internal/sampler"
)

// Monitor samples the host every tick and dispatches the alerts the detector raises
type Monitor struct {
	cfg        *config.Config
	sampler    *sampler.Sampler
	detector   *detector.Detector
	dispatcher *dispatch.Dispatcher
}

// New creates a monitor from a validated config
func New(cfg *config.Config, provider sampler.StatsProvider, notifier notify.Notifier) *Monitor {
	return &Monitor{
		cfg:        cfg,
		sampler:    sampler.New(provider, cfg.Hostname),
		detector:   detector.New(detector.SettingsFromConfig(cfg)),
		dispatcher: dispatch.New(notifier, cfg.Destination, cfg.Sender, cfg.DispatchTimeout),
	}
}

// Run primes the CPU counters and then ticks until ctx is cancelled.
// Stats that are unavailable before the first reading are fatal; later
// failures only skip the tick.
func (m *Monitor) Run(ctx context.Context) error {
	log.Printf("Monitor starting: interval=%s cycles_for_alert=%d cycles_between_alert=%d cpu>%g%% mem>%d%%",
		m.cfg.RefreshInterval, m.cfg.CyclesForAlert, m.cfg.CyclesBetweenAlert,
		m.cfg.CPUUsageThreshold, m.cfg.MemUsageThresholdPercent)

	if err := m.sampler.Prime(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	started := false
	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor shutting down")
			return nil
		case <-ticker.C:
			_, err := m.Tick(ctx)
			if err == nil {
				started = true
				continue
			}
			if !started {
				return fmt.Errorf("first reading: %w", err)
			}
			log.Printf("WARNING: skipping tick: %v", err)
		}
	}
}

// Tick takes one snapshot, runs it through the detector and waits for every
// alert it raised to be dispatched.
func (m *Monitor) Tick(ctx context.Context) ([]protocol.DispatchOutcome, error) {
	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		return nil, err
	}

	events, err := m.detector.Observe(snap)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	outcomes := m.dispatcher.Dispatch(ctx, events)
	for _, o := range outcomes {
		if o.Delivered() {
			log.Printf("Alert: %s => %s", o.Event.Message, o.Status)
		} else {
			log.Printf("Alert failed (%s): %s: %v", o.Event.Stream, o.Event.Message, o.Err)
		}
	}
	return outcomes, nil
}

// Detector exposes the stream states for inspection
func (m *Monitor) Detector() *detector.Detector {
	return m.detector
}
