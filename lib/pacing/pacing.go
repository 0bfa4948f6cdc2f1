package pacing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
)

// A Kind names one of the delay categories applied before network calls.
type Kind int

const (
	KindSearch Kind = iota
	KindContact
	KindDecrypt
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindContact:
		return "contact"
	case KindDecrypt:
		return "decrypt"
	case KindRange:
		return "range"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Bounds is an inclusive delay interval in seconds.
type Bounds struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

type Config struct {
	Search  Bounds `json:"search_delay"`
	Contact Bounds `json:"contact_delay"`
	Decrypt Bounds `json:"decrypt_delay"`
	Range   Bounds `json:"range_delay"`
}

func (c Config) bounds(kind Kind) Bounds {
	switch kind {
	case KindContact:
		return c.Contact
	case KindDecrypt:
		return c.Decrypt
	case KindRange:
		return c.Range
	default:
		// unknown kinds fall back to the search bounds
		return c.Search
	}
}

func (c Config) Validate() error {
	for _, kind := range []Kind{KindSearch, KindContact, KindDecrypt, KindRange} {
		b := c.bounds(kind)
		if b.Min < 0 {
			return fmt.Errorf("%s delay: min must not be negative, got %v", kind, b.Min)
		}
		if b.Max < b.Min {
			return fmt.Errorf("%s delay: max %v is below min %v", kind, b.Max, b.Min)
		}
	}
	return nil
}

// Controller samples randomized delays to keep the request rate
// from looking machine-generated.
type Controller struct {
	config Config
}

func NewController(config Config) (Controller, error) {
	err := config.Validate()
	if err != nil {
		return Controller{}, err
	}
	return Controller{config: config}, nil
}

// Sample draws a uniform delay within the bounds of the given kind.
// The result always lands inside [Min, Max].
func (c Controller) Sample(kind Kind) time.Duration {
	b := c.config.bounds(kind)

	minMs := int(b.Min * 1000)
	maxMs := int(b.Max * 1000)
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}

	ms, err := random.IntRange(minMs, maxMs)
	if err != nil {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// Wait suspends the calling flow for a sampled delay, returning early
// with the context's error if it is cancelled first.
func (c Controller) Wait(ctx context.Context, kind Kind) error {
	delay := c.Sample(kind)
	slog.DebugContext(ctx, "pacing delay", "kind", kind.String(), "seconds", delay.Seconds())

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
