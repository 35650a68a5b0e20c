// Package scheduler holds the pure booking rules: normalization of wall-clock
// time strings and the half-open overlap test used to detect double bookings.
package scheduler
