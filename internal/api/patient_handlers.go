package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/patients"
)

func (api *Api) ListPatientsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := api.patients.List(r.Context())
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) MyPatientProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	p, err := api.patients.GetOwn(r.Context(), claims.UserID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *Api) GetPatientHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	p, err := api.patients.Get(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePatientRequest struct {
	Allergies          []string                  `json:"allergies"`
	ChronicDiseases    []string                  `json:"chronic_diseases"`
	CurrentMedications []string                  `json:"current_medications"`
	EmergencyContacts  []models.EmergencyContact `json:"emergency_contacts" validate:"omitempty,max=3,dive"`
}

func (api *Api) UpdatePatientHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}

	var req updatePatientRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	p, err := api.patients.Update(r.Context(), patientID, patients.UpdateInput{
		Allergies:          req.Allergies,
		ChronicDiseases:    req.ChronicDiseases,
		CurrentMedications: req.CurrentMedications,
		EmergencyContacts:  req.EmergencyContacts,
	})
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *Api) GenerateQRHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	p, err := api.patients.GenerateQR(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (api *Api) RegenerateQRHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	p, err := api.patients.RegenerateQR(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AccessByQRHandler is the public entry point behind the printed QR code.
func (api *Api) AccessByQRHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	p, err := api.patients.AccessByQRToken(r.Context(), token, patients.AccessContext{
		AccessedBy: r.URL.Query().Get("accessed_by"),
		IPAddress:  r.RemoteAddr,
		Location:   r.Header.Get("X-Client-Location"),
	})
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// requirePatientAccess enforces the ownership rule and writes the response
// on failure.
func (api *Api) requirePatientAccess(w http.ResponseWriter, r *http.Request, patientID string) bool {
	ok, err := api.canAccessPatient(r, patientID)
	if err != nil {
		api.serviceError(w, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
