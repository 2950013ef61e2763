package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/records"
)

type createRecordRequest struct {
	PatientID    string `json:"patient_id" validate:"required"`
	ConsultedAt  string `json:"consulted_at"` // RFC 3339, defaults to now
	Reason       string `json:"reason" validate:"required"`
	Symptoms     string `json:"symptoms"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	Observations string `json:"observations"`
}

func (api *Api) CreateRecordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRecordRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	in := records.CreateInput{
		PatientID:    req.PatientID,
		Reason:       req.Reason,
		Symptoms:     req.Symptoms,
		Diagnosis:    req.Diagnosis,
		Treatment:    req.Treatment,
		Observations: req.Observations,
	}
	if req.ConsultedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ConsultedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid consulted_at, expected RFC 3339")
			return
		}
		in.ConsultedAt = &t
	}

	rec, err := api.records.Create(r.Context(), claims.UserID, in)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (api *Api) ListRecordsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	list, err := api.records.ListByPatient(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) GetRecordHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := api.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.serviceError(w, err)
		return
	}
	if !api.requirePatientAccess(w, r, rec.PatientID) {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type updateRecordRequest struct {
	Reason       *string `json:"reason"`
	Symptoms     *string `json:"symptoms"`
	Diagnosis    *string `json:"diagnosis"`
	Treatment    *string `json:"treatment"`
	Observations *string `json:"observations"`
}

func (api *Api) UpdateRecordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateRecordRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := api.records.Update(r.Context(), actorFromClaims(claims), chi.URLParam(r, "id"), records.UpdateInput{
		Reason:       req.Reason,
		Symptoms:     req.Symptoms,
		Diagnosis:    req.Diagnosis,
		Treatment:    req.Treatment,
		Observations: req.Observations,
	})
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type signRecordRequest struct {
	Signature string `json:"signature" validate:"required"`
}

func (api *Api) SignRecordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req signRecordRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := api.records.Sign(r.Context(), actorFromClaims(claims), chi.URLParam(r, "id"), req.Signature)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (api *Api) DeleteRecordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := api.records.Delete(r.Context(), actorFromClaims(claims), chi.URLParam(r, "id")); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
