package api

import (
	"net/http"
	"time"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/models"
)

type registerRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Cedula     string `json:"cedula" validate:"required"`
	Role       string `json:"role" validate:"omitempty,oneof=PATIENT DOCTOR ADMIN"`
	FirstNames string `json:"first_names" validate:"required"`
	LastNames  string `json:"last_names" validate:"required"`
	Phone      string `json:"phone"`
	BirthDate  string `json:"birth_date"` // YYYY-MM-DD
	Address    string `json:"address"`
	RegistryNo string `json:"registry_number"`
	Specialty  string `json:"specialty"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	in := auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Cedula:     req.Cedula,
		Role:       models.Role(req.Role),
		FirstNames: req.FirstNames,
		LastNames:  req.LastNames,
		Phone:      req.Phone,
		Address:    req.Address,
		RegistryNo: req.RegistryNo,
		Specialty:  req.Specialty,
	}
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid birth_date, expected YYYY-MM-DD")
			return
		}
		in.BirthDate = &t
	}

	user, token, err := api.auth.Register(r.Context(), in)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !api.decodeAndValidate(w, r, &req) {
		return
	}

	client := auth.ClientContext{
		IPAddress: r.RemoteAddr,
		Location:  r.Header.Get("X-Client-Location"),
	}
	user, token, err := api.auth.Authenticate(r.Context(), req.Email, req.Password, client)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

func (api *Api) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := api.auth.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
