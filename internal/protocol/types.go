// internal/protocol/types.go
package protocol

import (
	"fmt"
	"time"
)

// Snapshot is one reading of the host, taken once per tick
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	Hostname    string    `json:"hostname"`
	CPUUsages   []float64 `json:"cpu_usages"` // index = core id
	MemoryUsed  uint64    `json:"memory_used"`
	MemoryTotal uint64    `json:"memory_total"`
}

// StreamKind is the metric family a stream belongs to
type StreamKind int

const (
	StreamCPU StreamKind = iota
	StreamMemory
)

// StreamID identifies one monitored metric: a CPU core or overall memory
type StreamID struct {
	Kind StreamKind `json:"kind"`
	Core int        `json:"core,omitempty"`
}

// CPU returns the stream id of a CPU core
func CPU(core int) StreamID {
	return StreamID{Kind: StreamCPU, Core: core}
}

// Memory returns the stream id of the memory stream
func Memory() StreamID {
	return StreamID{Kind: StreamMemory}
}

func (s StreamID) String() string {
	if s.Kind == StreamMemory {
		return "memory"
	}
	return fmt.Sprintf("cpu%d", s.Core)
}

// AlertEvent is raised by the detector when a stream stays high long enough
type AlertEvent struct {
	ID        string    `json:"id"`
	Stream    StreamID  `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Value     float64   `json:"value"`     // percent
	Threshold float64   `json:"threshold"` // percent
	Message   string    `json:"message"`
}

// DispatchOutcome is the delivery result of one AlertEvent
type DispatchOutcome struct {
	Event  AlertEvent `json:"event"`
	Status string     `json:"status,omitempty"` // transport status when delivered
	Err    error      `json:"-"`
}

// Delivered reports whether the notifier accepted the alert
func (o DispatchOutcome) Delivered() bool {
	return o.Err == nil
}
