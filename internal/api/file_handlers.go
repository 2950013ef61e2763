package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/files"
	"github.com/odsie/odsie/internal/models"
)

const maxUploadSize = 25 << 20 // 25 MiB

func (api *Api) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	fileType := models.FileType(r.FormValue("file_type"))
	if fileType == "" {
		fileType = models.FileMedicalImage
	}

	f, err := api.files.Upload(r.Context(), files.UploadInput{
		PatientID:   patientID,
		UploadedBy:  claims.UserID,
		FileName:    header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		FileType:    fileType,
		Folder:      r.FormValue("folder"),
		Description: r.FormValue("description"),
		Content:     file,
	})
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (api *Api) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if !api.requirePatientAccess(w, r, patientID) {
		return
	}
	list, err := api.files.ListByPatient(r.Context(), patientID, r.URL.Query().Get("folder"))
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *Api) FileDownloadURLHandler(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	f, err := api.files.Get(r.Context(), fileID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	if !api.requirePatientAccess(w, r, f.PatientID) {
		return
	}

	url, err := api.files.DownloadURL(r.Context(), fileID, 15*time.Minute)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (api *Api) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	f, err := api.files.Get(r.Context(), fileID)
	if err != nil {
		api.serviceError(w, err)
		return
	}
	if !api.requirePatientAccess(w, r, f.PatientID) {
		return
	}
	if err := api.files.Delete(r.Context(), fileID); err != nil {
		api.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
