package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/models"
)

func (api *Api) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := api.store.GetAllUsers(r.Context())
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeAll(users))
}

func (api *Api) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	users, err := api.store.SearchUsers(r.Context(), q)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitizeAll(users))
}

func (api *Api) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := api.store.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

type updateUserRequest struct {
	FirstNames string `json:"first_names" validate:"required"`
	LastNames  string `json:"last_names" validate:"required"`
	Phone      string `json:"phone"`
	BirthDate  string `json:"birth_date"`
	Address    string `json:"address"`
	RegistryNo string `json:"registry_number"`
	Specialty  string `json:"specialty"`
}

func (api *Api) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := api.store.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.serviceError(w, err)
		return
	}

	user.FirstNames = req.FirstNames
	user.LastNames = req.LastNames
	user.Phone = req.Phone
	user.Address = req.Address
	user.RegistryNo = req.RegistryNo
	user.Specialty = req.Specialty
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid birth_date, expected YYYY-MM-DD")
			return
		}
		user.BirthDate = &t
	}

	if err := api.store.UpdateUserProfile(r.Context(), user); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Sanitized())
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE BLOCKED SUSPENDED"`
}

func (api *Api) SetUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	userID := chi.URLParam(r, "id")
	status := models.AccountStatus(req.Status)
	if err := api.store.UpdateAccountStatus(r.Context(), userID, status); err != nil {
		api.serviceError(w, err)
		return
	}
	api.recordStatusChange(r, userID, status)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (api *Api) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.store.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func sanitizeAll(users []*models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}
