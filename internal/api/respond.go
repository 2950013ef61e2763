package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/files"
	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/notify"
	"github.com/odsie/odsie/internal/patients"
	"github.com/odsie/odsie/internal/payments"
	"github.com/odsie/odsie/internal/records"
	"github.com/odsie/odsie/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. It writes the 400 itself and reports whether to continue.
func (api *Api) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := api.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "validation failed")
		return false
	}
	return true
}

// serviceError maps service errors onto HTTP statuses. Unrecognized errors
// become an opaque 500 so internals never leak.
func (api *Api) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountBlocked):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountSuspended):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrUserExists), errors.Is(err, payments.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, records.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, records.ErrSigned),
		errors.Is(err, auth.ErrRegistrationRequired),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, payments.ErrInvalidPeriod),
		errors.Is(err, files.ErrInvalidFileType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, files.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, patients.ErrNotFound),
		errors.Is(err, records.ErrNotFound),
		errors.Is(err, files.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, payments.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		log.Printf("[API] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// actorFromClaims builds the minimal user the services need for role checks.
func actorFromClaims(claims *auth.TokenClaims) *models.User {
	return &models.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
}

// canAccessPatient reports whether the caller may read a patient's data:
// staff always, patients only their own profile.
func (api *Api) canAccessPatient(r *http.Request, patientID string) (bool, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return false, nil
	}
	if claims.Role == models.RoleAdmin || claims.Role == models.RoleDoctor {
		return true, nil
	}
	own, err := api.patients.GetOwn(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return own.ID == patientID, nil
}
