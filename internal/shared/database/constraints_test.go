package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Postgres accepts IF NOT EXISTS on CREATE INDEX and ADD COLUMN but not on
// ADD CONSTRAINT; an unguarded constraint statement would fail the very
// first boot inside InitDB.
func TestConstraintStatementsAreRerunnable(t *testing.T) {
	for _, stmt := range constraintStatements {
		assert.NotContains(t, stmt, "ADD CONSTRAINT IF NOT EXISTS")

		switch {
		case strings.Contains(stmt, "ADD CONSTRAINT"):
			assert.Contains(t, stmt, "pg_constraint",
				"constraint additions must be guarded by a catalog lookup")
			assert.Contains(t, stmt, "DO $$")
		case strings.Contains(stmt, "CREATE INDEX"):
			assert.Contains(t, stmt, "IF NOT EXISTS")
		default:
			t.Fatalf("unexpected statement kind: %s", stmt)
		}
	}
}

func TestUniqueSeatConstraintCoversEventAndSeat(t *testing.T) {
	require.Contains(t, uniqueSeatConstraint, "UNIQUE (event_id, seat_number)")
}
