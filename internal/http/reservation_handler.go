package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/application"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	DeleteReservation(ctx context.Context, principal application.Principal, reservationID string) error
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	Calendar(ctx context.Context, params application.CalendarParams) (application.CalendarMonth, error)
	Dashboard(ctx context.Context, principal application.Principal) (application.Dashboard, error)
	CheckRoomAvailability(ctx context.Context, params application.AvailabilityParams) (application.AvailabilityResult, error)
	RoomReservations(ctx context.Context, principal application.Principal, roomID string) ([]application.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "room_id", req.RoomID, "date", req.Date)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.GetReservation(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", reservationID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "reservation_id", reservationID)

	reservation, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input:         req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "reservation update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "reservation_id", reservationID)

	reservation, err := h.service.CancelReservation(r.Context(), principal, reservationID)
	if err != nil {
		logger.WarnContext(r.Context(), "reservation cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "reservation_id", reservationID)

	if err := h.service.DeleteReservation(r.Context(), principal, reservationID); err != nil {
		logger.WarnContext(r.Context(), "reservation delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal:  principal,
		EmployeeID: query.Get("employee_id"),
		RoomID:     query.Get("room_id"),
		Date:       query.Get("date"),
		Period:     application.ListPeriod(strings.TrimSpace(query.Get("period"))),
		Status:     query.Get("status"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	month, monthOK := optionalInt(r.URL.Query().Get("month"))
	year, yearOK := optionalInt(r.URL.Query().Get("year"))
	if !monthOK || !yearOK {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}

	calendar, err := h.service.Calendar(r.Context(), application.CalendarParams{Principal: principal, Month: month, Year: year})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{
		Month:        calendar.Month,
		Year:         calendar.Year,
		Reservations: toReservationDTOs(calendar.Reservations),
	})
}

func (h *ReservationHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	dashboard, err := h.service.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardResponse{
		MyReservations: toReservationDTOs(dashboard.MyReservations),
		Stats: dashboardStatsDTO{
			MyReservationsCount: dashboard.Stats.MyReservationsCount,
			RoomsCount:          dashboard.Stats.RoomsCount,
			TodayReservations:   dashboard.Stats.TodayReservations,
		},
	})
}

func (h *ReservationHandler) RoomAvailability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	result, err := h.service.CheckRoomAvailability(r.Context(), application.AvailabilityParams{
		Principal: principal,
		RoomID:    r.PathValue("id"),
		Date:      query.Get("date"),
		StartTime: query.Get("start_time"),
		EndTime:   query.Get("end_time"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	message := "Salle disponible"
	if !result.Available {
		message = "Salle non disponible pour cette période"
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Available:       result.Available,
		Message:         message,
		StartTime:       result.StartTime,
		EndTime:         result.EndTime,
		DurationMinutes: result.DurationMinutes,
	})
}

func (h *ReservationHandler) RoomReservations(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.RoomReservations(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func optionalInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

type reservationRequest struct {
	RoomID     string  `json:"room_id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Purpose    *string `json:"purpose"`
	Notes      *string `json:"notes"`
	Status     string  `json:"status"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		RoomID:     r.RoomID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Purpose:    r.Purpose,
		Notes:      r.Notes,
		Status:     r.Status,
	}
}

var reservationStatusLabels = map[application.ReservationStatus]string{
	application.ReservationStatusPending:   "En attente",
	application.ReservationStatusConfirmed: "Confirmée",
	application.ReservationStatusCancelled: "Annulée",
	application.ReservationStatusCompleted: "Terminée",
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type calendarResponse struct {
	Month        int              `json:"month"`
	Year         int              `json:"year"`
	Reservations []reservationDTO `json:"reservations"`
}

type dashboardResponse struct {
	MyReservations []reservationDTO   `json:"my_reservations"`
	Stats          dashboardStatsDTO `json:"stats"`
}

type dashboardStatsDTO struct {
	MyReservationsCount int `json:"my_reservations_count"`
	RoomsCount          int `json:"rooms_count"`
	TodayReservations   int `json:"today_reservations"`
}

type availabilityResponse struct {
	Available       bool   `json:"available"`
	Message         string `json:"message"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type reservationDTO struct {
	ID                string  `json:"id"`
	RoomID            string  `json:"room_id"`
	RoomNumber        string  `json:"room_number,omitempty"`
	EmployeeID        string  `json:"employee_id"`
	EmployeeName      string  `json:"employee_name,omitempty"`
	Date              string  `json:"date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	DurationMinutes   int     `json:"duration_minutes"`
	FormattedDuration string  `json:"formatted_duration"`
	Status            string  `json:"status"`
	StatusLabel       string  `json:"status_label"`
	Purpose           *string `json:"purpose,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	label, ok := reservationStatusLabels[reservation.Status]
	if !ok {
		label = string(reservation.Status)
	}
	return reservationDTO{
		ID:                reservation.ID,
		RoomID:            reservation.RoomID,
		RoomNumber:        reservation.RoomNumber,
		EmployeeID:        reservation.EmployeeID,
		EmployeeName:      reservation.EmployeeName,
		Date:              reservation.Date,
		StartTime:         reservation.StartTime,
		EndTime:           reservation.EndTime,
		DurationMinutes:   reservation.DurationMinutes,
		FormattedDuration: formatDuration(reservation.DurationMinutes),
		Status:            string(reservation.Status),
		StatusLabel:       label,
		Purpose:           reservation.Purpose,
		Notes:             reservation.Notes,
		CreatedAt:         reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

// formatDuration renders minutes as "1h 30min", "2h" or "45min".
func formatDuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	hours, rest := minutes/60, minutes%60
	switch {
	case hours > 0 && rest > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(rest) + "min"
	case hours > 0:
		return strconv.Itoa(hours) + "h"
	default:
		return strconv.Itoa(rest) + "min"
	}
}
