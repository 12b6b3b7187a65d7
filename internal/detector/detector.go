// internal/detector/detector.go
package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"github.com/signalnine/loadwatch/internal/config"
	"github.com/signalnine/loadwatch/internal/protocol"
)

// ErrCoreCountChanged means a snapshot disagrees with the core count seen first
var ErrCoreCountChanged = errors.New("cpu core count changed")

// Settings are the thresholds and cycle counts the detector runs with
type Settings struct {
	CPUThreshold        float64 // percent, strict
	MemThresholdPercent uint64
	CyclesForAlert      int
	CyclesBetweenAlert  int
	TimestampFormat     string // strftime pattern, rendered in UTC
}

// SettingsFromConfig extracts detector settings from a validated config
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CPUThreshold:        cfg.CPUUsageThreshold,
		MemThresholdPercent: uint64(cfg.MemUsageThresholdPercent),
		CyclesForAlert:      cfg.CyclesForAlert,
		CyclesBetweenAlert:  cfg.CyclesBetweenAlert,
		TimestampFormat:     cfg.TimestampFormat,
	}
}

// StreamState holds the hysteresis counters of one stream
type StreamState struct {
	HighCycles int // consecutive breaching ticks
	OKCycles   int // non-breaching ticks since the last alert
}

// step advances the counters by one tick and reports whether to alert.
// HighCycles is left alone on alert so a stream that stays high is latched
// until it recovers.
func (st *StreamState) step(breach bool, cyclesForAlert, cyclesBetweenAlert int) bool {
	if !breach {
		st.HighCycles = 0
		st.OKCycles = inc(st.OKCycles)
		return false
	}

	st.HighCycles = inc(st.HighCycles)
	if st.HighCycles >= cyclesForAlert && st.OKCycles >= cyclesBetweenAlert {
		st.OKCycles = 0
		return true
	}
	return false
}

func inc(n int) int {
	if n == math.MaxInt {
		return n
	}
	return n + 1
}

// Detector keeps one state machine per CPU core and one for memory.
// It is not safe for concurrent use; the monitor loop is its only caller.
type Detector struct {
	settings Settings
	cpus     []StreamState // index = core id
	mem      StreamState
	ready    bool
}

// New creates a detector. Stream states are allocated on the first snapshot.
func New(settings Settings) *Detector {
	if settings.TimestampFormat == "" {
		settings.TimestampFormat = config.DefaultTimestampFormat
	}
	return &Detector{settings: settings}
}

// Observe feeds one snapshot through every stream and returns the alerts it
// raised: CPU streams by ascending core, then memory.
func (d *Detector) Observe(snap protocol.Snapshot) ([]protocol.AlertEvent, error) {
	if !d.ready {
		d.cpus = make([]StreamState, len(snap.CPUUsages))
		for i := range d.cpus {
			d.cpus[i].OKCycles = d.settings.CyclesBetweenAlert
		}
		d.mem.OKCycles = d.settings.CyclesBetweenAlert
		d.ready = true
	} else if len(snap.CPUUsages) != len(d.cpus) {
		return nil, fmt.Errorf("%w: got %d, started with %d", ErrCoreCountChanged, len(snap.CPUUsages), len(d.cpus))
	}

	cfa, cba := d.settings.CyclesForAlert, d.settings.CyclesBetweenAlert
	var events []protocol.AlertEvent

	for i, usage := range snap.CPUUsages {
		if d.cpus[i].step(usage > d.settings.CPUThreshold, cfa, cba) {
			msg := fmt.Sprintf("%s %s: High CPU%d usage: %.1f%%", d.stamp(snap.Timestamp), snap.Hostname, i, usage)
			events = append(events, newEvent(snap, protocol.CPU(i), usage, d.settings.CPUThreshold, msg))
		}
	}

	limit := snap.MemoryTotal * d.settings.MemThresholdPercent / 100
	if d.mem.step(snap.MemoryUsed > limit, cfa, cba) {
		msg := fmt.Sprintf("%s %s: High memory usage: >%d%%", d.stamp(snap.Timestamp), snap.Hostname, d.settings.MemThresholdPercent)
		used := float64(snap.MemoryUsed) * 100 / float64(snap.MemoryTotal)
		events = append(events, newEvent(snap, protocol.Memory(), used, float64(d.settings.MemThresholdPercent), msg))
	}

	return events, nil
}

// State returns a copy of a stream's counters
func (d *Detector) State(id protocol.StreamID) (StreamState, bool) {
	if !d.ready {
		return StreamState{}, false
	}
	if id.Kind == protocol.StreamMemory {
		return d.mem, true
	}
	if id.Core < 0 || id.Core >= len(d.cpus) {
		return StreamState{}, false
	}
	return d.cpus[id.Core], true
}

// Streams lists the monitored streams in evaluation order
func (d *Detector) Streams() []protocol.StreamID {
	if !d.ready {
		return nil
	}
	ids := make([]protocol.StreamID, 0, len(d.cpus)+1)
	for i := range d.cpus {
		ids = append(ids, protocol.CPU(i))
	}
	return append(ids, protocol.Memory())
}

func (d *Detector) stamp(ts time.Time) string {
	return strftime.Format(d.settings.TimestampFormat, ts.UTC())
}

// newEvent derives the id from host, stream and time so a replayed sequence
// produces the same events.
func newEvent(snap protocol.Snapshot, id protocol.StreamID, value, threshold float64, msg string) protocol.AlertEvent {
	name := snap.Hostname + "/" + id.String() + "/" + snap.Timestamp.UTC().Format(time.RFC3339Nano)
	return protocol.AlertEvent{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
		Stream:    id,
		Timestamp: snap.Timestamp,
		Hostname:  snap.Hostname,
		Value:     value,
		Threshold: threshold,
		Message:   msg,
	}
}

// IsCoreCountChanged checks if err was caused by a changed core count
func IsCoreCountChanged(err error) bool {
	return errors.Is(err, ErrCoreCountChanged)
}
