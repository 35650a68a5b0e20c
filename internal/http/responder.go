package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservations/internal/application"
)

var (
	errBadRequestBody      = errors.New("Format de requête invalide.")
	errInvalidQuery        = errors.New("Paramètres de requête invalides.")
	errMissingSessionToken = errors.New("Veuillez fournir un jeton d'authentification.")
	errRateLimited         = errors.New("Trop de requêtes. Réessayez dans un instant.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidToken), errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_TOKEN",
			Message:   "Session invalide ou expirée. Veuillez vous reconnecter.",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "Vous n'avez pas l'autorisation d'effectuer cette action.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "La ressource demandée est introuvable."})
	case errors.Is(err, application.ErrReservationLocked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESERVATION_LOCKED",
			Message:   "Cette réservation ne peut plus être modifiée ni annulée.",
		})
	case errors.Is(err, application.ErrRoomInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ROOM_IN_USE",
			Message:   "Impossible de supprimer cette salle car elle a des réservations à venir.",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "Cette ressource existe déjà.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Les données saisies sont invalides.",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Une erreur interne est survenue."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La requête est invalide."
	case http.StatusUnauthorized:
		return "Authentification requise."
	case http.StatusForbidden:
		return "Vous n'avez pas l'autorisation d'effectuer cette action."
	case http.StatusNotFound:
		return "La ressource demandée est introuvable."
	case http.StatusConflict:
		return "La requête est en conflit avec l'état actuel de la ressource."
	case http.StatusUnprocessableEntity:
		return "Les données saisies sont invalides."
	case http.StatusTooManyRequests:
		return "Trop de requêtes. Réessayez dans un instant."
	default:
		return "Une erreur interne est survenue."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

var validationMessages = map[string]string{
	// reservations
	"room is not available for this period":           "La salle n'est pas disponible pour cette période.",
	"employee already has an overlapping reservation": "L'employé a déjà une réservation qui se chevauche avec cette période.",
	"room is required":                                "La salle est obligatoire.",
	"employee is required":                            "L'employé est obligatoire.",
	"selected room does not exist":                    "La salle sélectionnée n'existe pas.",
	"selected employee does not exist":                "L'employé sélectionné n'existe pas.",
	"selected room or employee no longer exists":      "La salle ou l'employé sélectionné n'existe plus.",
	"date is required":                                "La date est obligatoire.",
	"date must be formatted as YYYY-MM-DD":            "Le format de date est invalide (AAAA-MM-JJ).",
	"date must be today or later":                     "La date doit être aujourd'hui ou ultérieure.",
	"time must be formatted as HH:MM":                 "Format d'heure invalide (HH:MM).",
	"time is not a valid clock time":                  "L'heure indiquée n'existe pas.",
	"end time must be after start time":               "Erreur de durée: l'heure de fin doit être après l'heure de début.",
	"time range is invalid":                           "Erreur lors du traitement des heures.",
	"purpose must be at most 255 characters":          "L'objet ne doit pas dépasser 255 caractères.",
	"notes must be at most 1000 characters":           "Les notes ne doivent pas dépasser 1000 caractères.",
	"status is required":                              "Le statut est obligatoire.",
	"status is not a known reservation status":        "Le statut sélectionné est invalide.",
	"month must be between 1 and 12":                  "Le mois doit être compris entre 1 et 12.",
	"year is out of range":                            "L'année est invalide.",
	// rooms
	"room number is required":                      "Le numéro de salle est obligatoire.",
	"room number must be at most 255 characters":   "Le numéro de salle ne doit pas dépasser 255 caractères.",
	"capacity must be at least 1":                  "La capacité doit être d'au moins 1.",
	"type is required":                             "Le type de salle est obligatoire.",
	"type is not a known room type":                "Le type de salle sélectionné est invalide.",
	"description must be at most 1000 characters":  "La description ne doit pas dépasser 1000 caractères.",
	"min_capacity must not be negative":            "La capacité minimale ne peut pas être négative.",
	// users
	"name is required":                                              "Le nom est obligatoire.",
	"name must be at most 255 characters":                           "Le nom ne doit pas dépasser 255 caractères.",
	"name may only contain letters, spaces, hyphens and apostrophes": "Le nom ne doit contenir que des lettres, espaces, tirets et apostrophes.",
	"first_name must be at most 255 characters":                     "Le prénom ne doit pas dépasser 255 caractères.",
	"department must be at most 255 characters":                     "Le département ne doit pas dépasser 255 caractères.",
	"employee_number must be at most 255 characters":                "Le matricule ne doit pas dépasser 255 caractères.",
	"email is required":                                             "L'adresse e-mail est obligatoire.",
	"email must be at most 255 characters":                          "L'adresse e-mail ne doit pas dépasser 255 caractères.",
	"email is invalid":                                              "L'adresse e-mail est invalide.",
	"email is already taken":                                        "Cette adresse e-mail est déjà utilisée.",
	"employee number is already taken":                              "Ce matricule est déjà utilisé.",
	"role is required":                                              "Le rôle est obligatoire.",
	"role must be user or admin":                                    "Le rôle doit être user ou admin.",
	"password is required":                                          "Le mot de passe est obligatoire.",
	"password must be at least 8 characters":                        "Le mot de passe doit contenir au moins 8 caractères.",
}

func translateValidationMessage(message string) string {
	if translated, ok := validationMessages[message]; ok {
		return translated
	}
	return message
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
