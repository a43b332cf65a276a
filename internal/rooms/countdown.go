package rooms

import (
	"context"
	"time"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
)

// Countdown derives remaining time from a server-issued deadline. It is
// sampled against the wall clock on every tick and never decremented
// locally, so a delayed tick cannot drift the display away from the
// server's clock.
type Countdown struct {
	EndsAt time.Time
}

// QuestionCountdown anchors a countdown on a server start time plus
// duration in seconds.
func QuestionCountdown(start time.Time, limitSeconds int) Countdown {
	return Countdown{EndsAt: start.Add(time.Duration(limitSeconds) * time.Second)}
}

// Remaining returns the time left at now, clamped at zero.
func (c Countdown) Remaining(now time.Time) time.Duration {
	d := c.EndsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the deadline has passed at now.
func (c Countdown) Expired(now time.Time) bool {
	return c.Remaining(now) == 0
}

// Watch samples the countdown on a sub-second ticker, invoking fn with
// the remaining time each tick. It returns after reporting zero once or
// when ctx is canceled; cancellation also stops the ticker, so an
// unmounted view leaves no timer behind.
func (c Countdown) Watch(ctx context.Context, fn func(remaining time.Duration)) {
	ticker := time.NewTicker(config.CountdownTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining := c.Remaining(time.Now())
			fn(remaining)
			if remaining == 0 {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
