// cmd/loadwatch/banner.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/signalnine/loadwatch/internal/config"
	"github.com/signalnine/loadwatch/internal/sampler"
)

func banner(title string) string {
	rule := strings.Repeat("=", len(title))
	return rule + "\n" + title + "\n" + rule + "\n"
}

func formatHostInfo(info sampler.HostInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "System:     %s %s\n", info.Platform, info.KernelVersion)
	fmt.Fprintf(&b, "OS version: %s %s\n", info.OS, info.PlatformVersion)
	fmt.Fprintf(&b, "Host name:  %s\n", info.Hostname)
	fmt.Fprintf(&b, "CPUs:       %d\n", info.CPUs)
	fmt.Fprintf(&b, "Memory:     %s\n", humanize.IBytes(info.MemoryTotal))
	fmt.Fprintf(&b, "Swap:       %s\n", humanize.IBytes(info.SwapTotal))
	return b.String()
}

func printConfig(w io.Writer, cfg *config.Config) {
	hostname := cfg.Hostname
	if hostname == "" {
		hostname = "(from OS)"
	}
	fmt.Fprintf(w, "hostname:             %s\n", hostname)
	fmt.Fprintf(w, "refresh_interval:     %s\n", cfg.RefreshInterval)
	fmt.Fprintf(w, "cycles_for_alert:     %d\n", cfg.CyclesForAlert)
	fmt.Fprintf(w, "cycles_between_alert: %d\n", cfg.CyclesBetweenAlert)
	fmt.Fprintf(w, "cpu_usage_threshold:  %g%%\n", cfg.CPUUsageThreshold)
	fmt.Fprintf(w, "mem_usage_threshold:  %d%%\n", cfg.MemUsageThresholdPercent)
	fmt.Fprintf(w, "dispatch_timeout:     %s\n", cfg.DispatchTimeout)
	fmt.Fprintf(w, "sender:               %s\n", cfg.Sender)
	fmt.Fprintf(w, "destination:          %s\n", cfg.Destination)
	for i, n := range cfg.Notifiers {
		target := n.URL
		if n.Kind == config.KindOutbox {
			target = n.DBPath
		}
		fmt.Fprintf(w, "notifier %d:           %s %s\n", i+1, n.Kind, target)
	}
}
