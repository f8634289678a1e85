package broadsheet

import (
	"time"
)

// A Vote ties one user to one entry with a direction. Votes are immutable
// rows: changing a vote is modeled as delete then recreate by the caller, and
// the store enforces at most one vote per (entry, username) pair.
type Vote struct {
	ID        int64     `db:"id"`
	EntryID   int64     `db:"entry_id"`
	Username  string    `db:"username"`
	Up        bool      `db:"up"`
	CreatedAt time.Time `db:"created_at"`
}
