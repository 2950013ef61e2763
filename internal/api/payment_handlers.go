package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createPaymentRequest struct {
	PatientID string  `json:"patient_id" validate:"required"`
	Month     int     `json:"month" validate:"required,min=1,max=12"`
	Year      int     `json:"year" validate:"required,min=2000"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

func (api *Api) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	p, err := api.payments.CreateMonthly(r.Context(), req.PatientID, req.Month, req.Year, req.Amount)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (api *Api) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := api.payments.ListAll(r.Context())
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) PaymentStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := api.payments.Statistics(r.Context())
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (api *Api) PatientPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	list, err := api.payments.ListByPatient(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) PatientPendingPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	list, err := api.payments.ListPending(r.Context(), patientID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type settlePaymentRequest struct {
	Method    string `json:"method" validate:"required"`
	Reference string `json:"reference"`
}

func (api *Api) SettlePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req settlePaymentRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	p, err := api.payments.Settle(r.Context(), chi.URLParam(r, "id"), req.Method, req.Reference)
	if err != nil {
		api.serviceError(w, err)
		return
	}

	if patient, perr := api.patients.Get(r.Context(), p.PatientID); perr == nil {
		api.notify.NotifyPayment(r.Context(), patient.UserID, p)
	}
	writeJSON(w, http.StatusOK, p)
}
