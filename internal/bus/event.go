package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds in use: "tg.message", "tg.command", "tg.callback" from the
// transport poller; "digest.prompted", "digest.delivered" from the
// eligibility engine; "janitor.deleted" from the cleanup loop.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
