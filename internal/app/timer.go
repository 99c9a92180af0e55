package app

import (
	"context"
	"time"
)

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// RunCountdown delivers one tick per interval to the session until it
// finishes or ctx is canceled. Expiry triggers the session's own finishing
// path, so a countdown racing a manual submit still records at most one
// result.
func RunCountdown(ctx context.Context, session *Session, interval time.Duration) {
	if interval <= 0 {
		interval = TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := session.Tick(ctx); done {
				return
			}
		}
	}
}
