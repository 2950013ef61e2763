package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/auth"
)

func (api *Api) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := api.notify.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := api.notify.MarkRead(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (api *Api) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := api.notify.MarkAllRead(r.Context(), claims.UserID); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
