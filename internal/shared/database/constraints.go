package database

import (
	"gorm.io/gorm"
)

// Postgres has no ADD CONSTRAINT IF NOT EXISTS, so the unique constraint is
// guarded through pg_constraint to keep the migration re-runnable.
const uniqueSeatConstraint = `
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'unique_seat_per_event'
		) THEN
			ALTER TABLE tickets
			ADD CONSTRAINT unique_seat_per_event
			UNIQUE (event_id, seat_number);
		END IF;
	END $$;
`

// Index for the expiry sweep: find reserved tickets whose lease lapsed
const statusLeaseIndex = `
	CREATE INDEX IF NOT EXISTS idx_tickets_status_lease
	ON tickets (status, lease_expires_at);
`

// Index for holder lookups
const holderIndex = `
	CREATE INDEX IF NOT EXISTS idx_tickets_holder
	ON tickets (holder);
`

var constraintStatements = []string{
	uniqueSeatConstraint,
	statusLeaseIndex,
	holderIndex,
}

// MigrateConstraints adds critical database constraints for concurrency
// control. A seat exists exactly once per event; the constraint is the last
// line of defense against double-creation regardless of what the application
// layer does.
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
