package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/models"
)

func (api *Api) ListActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := api.store.GetAllActivityLogs(r.Context(), limit)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) ActivityStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := api.store.GetActivityStatistics(r.Context())
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (api *Api) UserActivityHandler(w http.ResponseWriter, r *http.Request) {
	list, err := api.store.GetActivityByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) PatientActivityHandler(w http.ResponseWriter, r *http.Request) {
	list, err := api.store.GetActivityByPatient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// recordStatusChange audits an administrative status change without failing
// the request.
func (api *Api) recordStatusChange(r *http.Request, userID string, status models.AccountStatus) {
	err := api.store.CreateActivityLog(r.Context(), &models.ActivityLog{
		UserID:      userID,
		Action:      models.ActionStatusChange,
		Description: "account status set to " + string(status),
		IPAddress:   r.RemoteAddr,
	})
	if err != nil {
		log.Printf("[API] failed to record status change for user %s: %v", userID, err)
	}
}
