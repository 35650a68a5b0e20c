package application

import "time"

const dateLayout = "2006-01-02"

func localNow(now func() time.Time, location *time.Location) time.Time {
	current := now()
	if location != nil {
		current = current.In(location)
	}
	return current
}

// calendarDate returns the YYYY-MM-DD date of now in location.
func calendarDate(now func() time.Time, location *time.Location) string {
	return localNow(now, location).Format(dateLayout)
}

// weekBounds returns the Monday and Sunday of the week containing reference.
func weekBounds(reference time.Time) (string, string) {
	offset := (int(reference.Weekday()) + 6) % 7
	monday := reference.AddDate(0, 0, -offset)
	return monday.Format(dateLayout), monday.AddDate(0, 0, 6).Format(dateLayout)
}

// monthBounds returns the first and last day of the given month.
func monthBounds(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.Format(dateLayout), first.AddDate(0, 1, -1).Format(dateLayout)
}

func validDate(value string) bool {
	if len(value) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, value)
	return err == nil
}
