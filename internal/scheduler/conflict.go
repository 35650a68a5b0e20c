package scheduler

// Interval is an existing or candidate booking on a single calendar date.
// Start and End are canonical HH:MM strings, which order lexically the same
// way they order in time.
type Interval struct {
	ID    string
	Start string
	End   string
}

// ConflictType describes which resource is double-booked.
type ConflictType string

const (
	// ConflictTypeRoom indicates the room is already booked for the period.
	ConflictTypeRoom ConflictType = "room"
	// ConflictTypeEmployee indicates the employee already has an overlapping booking.
	ConflictTypeEmployee ConflictType = "employee"
)

// Conflict identifies a resource that rejected the candidate interval.
type Conflict struct {
	Type ConflictType
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back intervals (one ends exactly when the other starts) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// IsAvailable reports whether candidate fits among existing intervals.
// Entries whose ID equals a non-empty excludeID are ignored so a booking can
// be edited without colliding with itself. Callers filter out cancelled
// bookings before calling.
func IsAvailable(existing []Interval, candidate Interval, excludeID string) bool {
	for _, entry := range existing {
		if excludeID != "" && entry.ID == excludeID {
			continue
		}
		if Overlaps(entry, candidate) {
			return false
		}
	}
	return true
}

// Availability is the outcome of checking a candidate against both the room
// and the employee calendars for the same date.
type Availability struct {
	RoomAvailable     bool
	EmployeeAvailable bool
}

// Available reports whether both checks passed.
func (a Availability) Available() bool {
	return a.RoomAvailable && a.EmployeeAvailable
}

// Conflicts lists the failed checks, room first.
func (a Availability) Conflicts() []Conflict {
	var conflicts []Conflict
	if !a.RoomAvailable {
		conflicts = append(conflicts, Conflict{Type: ConflictTypeRoom})
	}
	if !a.EmployeeAvailable {
		conflicts = append(conflicts, Conflict{Type: ConflictTypeEmployee})
	}
	return conflicts
}

// CheckAvailability runs IsAvailable against the room's and the employee's
// intervals for the candidate's date.
func CheckAvailability(roomEntries, employeeEntries []Interval, candidate Interval, excludeID string) Availability {
	return Availability{
		RoomAvailable:     IsAvailable(roomEntries, candidate, excludeID),
		EmployeeAvailable: IsAvailable(employeeEntries, candidate, excludeID),
	}
}
