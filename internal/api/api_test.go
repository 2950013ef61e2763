package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/config"
	"github.com/odsie/odsie/internal/database"
	"github.com/odsie/odsie/internal/files"
	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/notify"
	"github.com/odsie/odsie/internal/patients"
	"github.com/odsie/odsie/internal/payments"
	"github.com/odsie/odsie/internal/records"
	"github.com/odsie/odsie/internal/store"
)

func testCtx() context.Context {
	return context.Background()
}

func newTestAPI(t *testing.T) (*httptest.Server, *Api) {
	t.Helper()

	cfg := config.Config{APIPort: 0, FrontendURL: "http://localhost:5173"}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "api_test.db")
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = time.Hour

	db, err := database.Open(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db, "sqlite")
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	notifier := notify.New(st, nil)

	apiInstance := NewApi(cfg, Deps{
		Store:    st,
		Tokens:   tokens,
		Auth:     auth.NewService(st, st, tokens),
		Patients: patients.NewService(st, notifier, cfg.FrontendURL),
		Records:  records.NewService(st),
		Files:    files.NewService(st, nil),
		Payments: payments.NewService(st),
		Notify:   notifier,
	})

	server := httptest.NewServer(apiInstance.Router)
	t.Cleanup(server.Close)
	return server, apiInstance
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	decoded := map[string]json.RawMessage{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerUser(t *testing.T, serverURL, email, cedula, role string) (userID, token string) {
	t.Helper()
	body := map[string]any{
		"email":       email,
		"password":    "password123",
		"cedula":      cedula,
		"role":        role,
		"first_names": "Test",
		"last_names":  "User",
	}
	if role == "DOCTOR" {
		body["registry_number"] = "MSP-0001"
	}
	resp, decoded := doJSON(t, http.MethodPost, serverURL+"/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, json.Unmarshal(decoded["user"], &user))
	var tok string
	require.NoError(t, json.Unmarshal(decoded["token"], &tok))
	return user.ID, tok
}

func login(t *testing.T, serverURL, email string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return doJSON(t, http.MethodPost, serverURL+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
}

func TestHeartbeat(t *testing.T) {
	server, _ := newTestAPI(t)

	resp, err := http.Get(server.URL + "/heartbeat")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginAndMe(t *testing.T) {
	server, _ := newTestAPI(t)

	_, token := registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")
	require.NotEmpty(t, token)

	resp, decoded := login(t, server.URL, "ana@example.com")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginToken string
	require.NoError(t, json.Unmarshal(decoded["token"], &loginToken))

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/auth/me", loginToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	server, _ := newTestAPI(t)
	registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var msg string
	json.Unmarshal(decoded["error"], &msg)
	assert.Equal(t, "invalid email or password", msg)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server, _ := newTestAPI(t)

	resp, err := http.Get(server.URL + "/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRejectPatients(t *testing.T) {
	server, _ := newTestAPI(t)
	_, patientToken := registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/users", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/payments", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPaymentGateBlocksAndSettlementUnblocks(t *testing.T) {
	server, apiInstance := newTestAPI(t)

	registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")
	_, adminToken := registerUser(t, server.URL, "admin@example.com", "0000000000", "ADMIN")

	ana, err := apiInstance.store.GetUserByEmail(testCtx(), "ana@example.com")
	require.NoError(t, err)
	profile, err := apiInstance.store.GetPatientByUserID(testCtx(), ana.ID)
	require.NoError(t, err)

	// Admin registers a pending obligation.
	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/payments", adminToken, map[string]any{
		"patient_id": profile.ID,
		"month":      1,
		"year":       2025,
		"amount":     30.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var payment models.Payment
	require.NoError(t, json.Unmarshal(decoded["id"], &payment.ID))

	// The debtor can no longer log in.
	resp, body := login(t, server.URL, "ana@example.com")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var msg string
	json.Unmarshal(body["error"], &msg)
	assert.Contains(t, msg, "blocked")

	// Settling through the admin endpoint reactivates the account.
	resp, _ = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/payments/%s/pay", server.URL, payment.ID), adminToken, map[string]string{
		"method": "transfer",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = login(t, server.URL, "ana@example.com")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Settling the same obligation again conflicts.
	resp, _ = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/payments/%s/pay", server.URL, payment.ID), adminToken, map[string]string{
		"method": "transfer",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestQRAccessFlow(t *testing.T) {
	server, apiInstance := newTestAPI(t)

	_, patientToken := registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/patients/me", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ana, err := apiInstance.store.GetUserByEmail(testCtx(), "ana@example.com")
	require.NoError(t, err)
	profile, err := apiInstance.store.GetPatientByUserID(testCtx(), ana.ID)
	require.NoError(t, err)

	// The public QR endpoint resolves the token without authentication.
	resp, decoded := doJSON(t, http.MethodGet,
		server.URL+"/patients/qr/"+profile.QRAccessToken+"?accessed_by=Dr.+Vega", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var id string
	require.NoError(t, json.Unmarshal(decoded["id"], &id))
	assert.Equal(t, profile.ID, id)

	// The access left an audit entry and an in-app notification.
	trail, err := apiInstance.store.GetActivityByPatient(testCtx(), profile.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.ActionRecordAccess, trail[0].Action)

	feed, err := apiInstance.store.GetNotificationsByUser(testCtx(), ana.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, models.NotificationAccess, feed[0].Kind)

	// An unknown token is a plain 404.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/patients/qr/bogus", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordRoleRules(t *testing.T) {
	server, apiInstance := newTestAPI(t)

	registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")
	_, doctorToken := registerUser(t, server.URL, "doc@example.com", "0912345678", "DOCTOR")
	_, otherDoctorToken := registerUser(t, server.URL, "doc2@example.com", "0912345679", "DOCTOR")
	_, adminToken := registerUser(t, server.URL, "admin@example.com", "0000000000", "ADMIN")

	ana, err := apiInstance.store.GetUserByEmail(testCtx(), "ana@example.com")
	require.NoError(t, err)
	profile, err := apiInstance.store.GetPatientByUserID(testCtx(), ana.ID)
	require.NoError(t, err)

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/records", doctorToken, map[string]string{
		"patient_id": profile.ID,
		"reason":     "checkup",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var recID string
	require.NoError(t, json.Unmarshal(decoded["id"], &recID))

	// A different doctor may not edit it.
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/records/"+recID, otherDoctorToken, map[string]string{
		"diagnosis": "intrusion",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The author may.
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/records/"+recID, doctorToken, map[string]string{
		"diagnosis": "all clear",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Deletion is admin-only.
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/records/"+recID, doctorToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/records/"+recID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadWithoutStorageConfigured(t *testing.T) {
	server, apiInstance := newTestAPI(t)
	_, patientToken := registerUser(t, server.URL, "ana@example.com", "1712345678", "PATIENT")

	ana, err := apiInstance.store.GetUserByEmail(testCtx(), "ana@example.com")
	require.NoError(t, err)
	profile, err := apiInstance.store.GetPatientByUserID(testCtx(), ana.ID)
	require.NoError(t, err)

	// Listing works even with no object store wired.
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/patients/"+profile.ID+"/files", patientToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
