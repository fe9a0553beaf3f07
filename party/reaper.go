/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reaper closes sessions nobody has touched for longer than its timeout.
type Reaper struct {
	manager *Manager
	timeout time.Duration
	log     zerolog.Logger
}

func NewReaper(manager *Manager, timeout time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		manager: manager,
		timeout: timeout,
		log:     log.With().Str("module", "party.reaper").Logger(),
	}
}

// Sweep closes every session idle since before now minus the timeout and
// returns how many it closed.
func (r *Reaper) Sweep(now time.Time) int {
	if r.timeout <= 0 {
		return 0
	}

	cutoff := now.Add(-r.timeout)

	closed := 0
	for _, s := range r.manager.sessions.Sessions() {
		if r.manager.expire(s, cutoff) {
			closed++
		}
	}

	if closed > 0 {
		r.log.Info().Int("closed", closed).Dur("timeout", r.timeout).Msg("reaped idle sessions")
	}

	return closed
}

// Run sweeps every half timeout until ctx is done. It returns immediately
// when the timeout is not positive.
func (r *Reaper) Run(ctx context.Context) {
	if r.timeout <= 0 {
		return
	}

	ticker := time.NewTicker(r.timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
