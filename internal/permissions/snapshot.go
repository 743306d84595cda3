package permissions

import "time"

// Snapshot is the resolved permission state of one staff member on one
// tenant at a point in time. Rebuilt wholesale on every fetch, never
// mutated incrementally.
type Snapshot struct {
	UserID         string
	TenantID       string
	Permissions    []string
	Priority       int
	CanManageStaff bool
	CanCreateRoles bool
	CanDeleteRoles bool
	FetchedAt      time.Time
}

// Allows applies the matcher against this snapshot.
func (s Snapshot) Allows(required string) bool {
	return Matches(s.Permissions, required, s.Priority)
}
