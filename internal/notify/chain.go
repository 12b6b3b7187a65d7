// internal/notify/chain.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/signalnine/loadwatch/internal/config"
)

// Entry is one named notifier in a chain
type Entry struct {
	Name     string
	Notifier Notifier
}

// Chain tries its notifiers in order. It moves on to the next one only when
// a notifier is unavailable; a rejected alert is returned as-is.
type Chain struct {
	entries []Entry
}

// NewChain creates a fallback chain
func NewChain(entries ...Entry) *Chain {
	return &Chain{entries: entries}
}

// Len returns the number of notifiers in the chain
func (c *Chain) Len() int {
	return len(c.entries)
}

func (c *Chain) Send(ctx context.Context, destination, sender, text string) (string, error) {
	if len(c.entries) == 0 {
		return "", errors.New("no notifiers configured")
	}

	var lastErr error
	for i, e := range c.entries {
		status, err := e.Notifier.Send(ctx, destination, sender, text)
		if err == nil {
			if i > 0 {
				log.Printf("Notify fallback: %s succeeded after %d failures", e.Name, i)
			}
			return status, nil
		}

		lastErr = err
		if !IsUnavailable(err) {
			return "", fmt.Errorf("%s: %w", e.Name, err)
		}
		if ctx.Err() != nil {
			break
		}
		if i < len(c.entries)-1 {
			log.Printf("Notifier %d (%s) unavailable: %v, trying next...", i+1, e.Name, err)
		}
	}

	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// Close closes every notifier that holds resources
func (c *Chain) Close() error {
	var errs []error
	for _, e := range c.entries {
		if closer, ok := e.Notifier.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the chain described by the notifiers section
func FromConfig(cfgs []config.NotifierConfig) (*Chain, error) {
	chain := NewChain()
	for i, n := range cfgs {
		name := fmt.Sprintf("%s#%d", n.Kind, i+1)

		var notifier Notifier
		switch n.Kind {
		case config.KindWhatsApp:
			notifier = NewWhatsApp(n.URL, n.APIKey, n.RetryMax, n.Timeout)
		case config.KindWebhook:
			notifier = NewWebhook(n.URL, n.APIKey, n.RetryMax, n.Timeout)
		case config.KindOutbox:
			outbox, err := NewOutbox(n.DBPath)
			if err != nil {
				chain.Close()
				return nil, fmt.Errorf("open outbox %s: %w", n.DBPath, err)
			}
			notifier = outbox
		case config.KindLog:
			notifier = NewLog(nil)
		default:
			chain.Close()
			return nil, fmt.Errorf("unknown notifier kind %q", n.Kind)
		}
		chain.entries = append(chain.entries, Entry{Name: name, Notifier: notifier})
	}
	return chain, nil
}

// Log writes alerts to a logger instead of delivering them
type Log struct {
	logger *log.Logger
}

// NewLog creates a log notifier; nil means the standard logger
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, destination, sender, text string) (string, error) {
	l.logger.Printf("ALERT %s -> %s: %s", sender, destination, text)
	return "logged at " + time.Now().UTC().Format(time.RFC3339), nil
}
