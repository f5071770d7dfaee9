// Package watermark defines the sent-log port. A watermark is the instant a
// document was last confirmed delivered to the remote system; it bounds the
// next fetch window.
package watermark

import (
	"context"
	"time"
)

// Store records per-document delivery instants.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns (nil, nil) for a document that was never sent
	Get(ctx context.Context, internalID string) (*time.Time, error)

	// Set records the delivery instant, replacing any previous one
	Set(ctx context.Context, internalID string, at time.Time) error

	// MinimumWatermark returns the earliest watermark among ids, ignoring ids
	// that were never sent. It returns nil when no id has a watermark.
	MinimumWatermark(ctx context.Context, internalIDs []string) (*time.Time, error)
}

// Earliest returns the earliest non-nil instant, or nil when all are nil
func Earliest(values ...*time.Time) *time.Time {
	var earliest *time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		if earliest == nil || v.Before(*earliest) {
			t := *v
			earliest = &t
		}
	}
	return earliest
}
