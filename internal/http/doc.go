// Package http provides HTTP handlers and middleware for the room reservation API.
//
// The router exposes the following endpoints. Every endpoint except /healthz
// requires an `Authorization: Bearer <token>` header.
//   - GET /healthz: storage liveness probe.
//   - GET /dashboard: the caller's next reservations and summary counters.
//   - GET /calendar?month=&year=: every reservation of a month.
//   - GET /reservations, POST /reservations, GET|PUT|DELETE /reservations/{id},
//     POST /reservations/{id}/cancel: reservation workflows exchanging the
//     `reservationDTO` payload defined in reservation_handler.go. Time slots
//     accept HH:MM or HH:MM:SS and inverted ranges are swapped.
//   - GET /rooms, POST /rooms, GET|PUT|DELETE /rooms/{id},
//     GET /rooms/{id}/availability, GET /rooms/{id}/reservations: room catalog
//     endpoints exchanging the `roomDTO` payload defined in room_handler.go.
//     Reads are open to any authenticated principal while mutations require
//     admin privileges.
//   - GET /users, POST /users, PUT|DELETE /users/{id}, GET /employees:
//     administrator controlled user management exchanging the `userDTO` payload
//     defined in user_handler.go.
//
// Validation failures answer 422 with French field messages under "errors".
package http
