package tickets

import "time"

// Status is a ticket's position in its lifecycle
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusUsed      Status = "used"
)

// transitions holds the only legal moves. Everything else is rejected without
// mutating the ticket.
var transitions = map[Status][]Status{
	StatusAvailable: {StatusReserved},
	StatusReserved:  {StatusAvailable, StatusSold},
	StatusSold:      {StatusUsed},
	StatusUsed:      {},
}

// IsValid returns true for a known lifecycle status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a legal transition
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsHeld reports whether the status implies a non-null holder
func (s Status) IsHeld() bool {
	return s == StatusReserved || s == StatusSold || s == StatusUsed
}

// EffectiveStatus resolves the logical status at a point in time. A reserved
// ticket whose lease already lapsed is logically available even if no release
// action has run yet; every read path must go through this so correctness
// never depends on an in-memory timer having survived a restart.
func (t *Ticket) EffectiveStatus(now time.Time) Status {
	if t.Status == StatusReserved && t.LeaseExpiresAt != nil && !now.Before(*t.LeaseExpiresAt) {
		return StatusAvailable
	}
	return t.Status
}
