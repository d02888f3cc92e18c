// Package backoff provides a small reconnect/retry loop utility, adapted
// from the reference feeder's per-venue connection-loop helper so callers
// attaching to a channel that may not exist yet don't each reimplement the
// same retry-with-delay shape.
package backoff

import (
	"context"
	"log"
	"time"
)

// AttachFunc attempts one connection/attach and returns nil on success.
type AttachFunc func(ctx context.Context) error

// Retry calls attach in a loop until it succeeds or ctx is done, logging
// and sleeping delay between attempts. name is used only for log lines.
func Retry(ctx context.Context, name string, delay time.Duration, attach AttachFunc) error {
	for {
		if err := attach(ctx); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			log.Printf("%s: attach failed (%v), retrying in %s...", name, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
