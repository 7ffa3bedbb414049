package digest

import (
	"time"

	"github.com/matheus3301/chatzip/internal/store"
)

const (
	// MaxRetention is a fixed ceiling independent of configuration. It
	// bounds history scans for dormant users even when the configured
	// window is larger.
	MaxRetention = 10 * 24 * time.Hour

	// DefaultLookback is the assumed read position for users with no
	// ledger row.
	DefaultLookback = 24 * time.Hour
)

// ResolveCutoff computes the timestamp (Unix millis) below which
// messages don't count as unread for the user. The base is the later of
// last_seen and last_summary (a delivered summary advances the read
// position), defaulting to now-24h with no ledger row. The base is then
// clamped by the retention ceiling and the configured window; the clamp
// applies uniformly, default or not.
func ResolveCutoff(a *store.Activity, window time.Duration, now time.Time) int64 {
	base := now.Add(-DefaultLookback).UnixMilli()
	if a != nil {
		seen := a.LastSeen
		if a.LastSummaryTS > seen {
			seen = a.LastSummaryTS
		}
		if seen > 0 {
			base = seen
		}
	}
	return clamp(base, window, now)
}

// SummaryCutoff computes the boundary for "new material since the last
// summary": last_summary when present, otherwise now-24h, clamped the
// same way as ResolveCutoff. The throttle gate and the confirmation
// re-check both use it.
func SummaryCutoff(a *store.Activity, window time.Duration, now time.Time) int64 {
	base := now.Add(-DefaultLookback).UnixMilli()
	if a != nil && a.LastSummaryTS > 0 {
		base = a.LastSummaryTS
	}
	return clamp(base, window, now)
}

func clamp(base int64, window time.Duration, now time.Time) int64 {
	cutoff := base
	if floor := now.Add(-MaxRetention).UnixMilli(); floor > cutoff {
		cutoff = floor
	}
	if floor := now.Add(-window).UnixMilli(); floor > cutoff {
		cutoff = floor
	}
	return cutoff
}
