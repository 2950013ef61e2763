package patients

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/store"
)

type fakePatientStore struct {
	patients map[string]*models.Patient // by ID
	audits   []*models.ActivityLog
}

func newFakePatientStore(patients ...*models.Patient) *fakePatientStore {
	f := &fakePatientStore{patients: map[string]*models.Patient{}}
	for _, p := range patients {
		f.patients[p.ID] = p
	}
	return f
}

func (f *fakePatientStore) GetPatientByID(_ context.Context, id string) (*models.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientStore) GetPatientByUserID(_ context.Context, userID string) (*models.Patient, error) {
	for _, p := range f.patients {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakePatientStore) GetPatientByQRToken(_ context.Context, token string) (*models.Patient, error) {
	for _, p := range f.patients {
		if p.QRAccessToken == token {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakePatientStore) GetAllPatients(_ context.Context) ([]*models.Patient, error) {
	var out []*models.Patient
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePatientStore) UpdatePatientProfile(_ context.Context, p *models.Patient) error {
	if _, ok := f.patients[p.ID]; !ok {
		return store.ErrNotFound
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientStore) SetPatientQRData(_ context.Context, patientID, qrData string) error {
	p, ok := f.patients[patientID]
	if !ok {
		return store.ErrNotFound
	}
	p.QRCodeData = qrData
	return nil
}

func (f *fakePatientStore) UpdatePatientQR(_ context.Context, patientID, token, qrData string) error {
	p, ok := f.patients[patientID]
	if !ok {
		return store.ErrNotFound
	}
	p.QRAccessToken = token
	p.QRCodeData = qrData
	return nil
}

func (f *fakePatientStore) CreateActivityLog(_ context.Context, l *models.ActivityLog) error {
	f.audits = append(f.audits, l)
	return nil
}

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) NotifyAccess(_ context.Context, p *models.Patient, accessedBy string) {
	f.calls = append(f.calls, p.ID+":"+accessedBy)
}

func testPatient() *models.Patient {
	return &models.Patient{
		ID:            "patient-1",
		UserID:        "user-1",
		QRAccessToken: "token-1",
	}
}

func TestGenerateQRRendersAndStoresDataURL(t *testing.T) {
	f := newFakePatientStore(testPatient())
	svc := NewService(f, nil, "https://clinic.example.com")

	p, err := svc.GenerateQR(context.Background(), "patient-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.QRCodeData, "data:image/png;base64,"))
	assert.Equal(t, "token-1", p.QRAccessToken, "generation keeps the existing token")
	assert.Equal(t, p.QRCodeData, f.patients["patient-1"].QRCodeData)
}

func TestRegenerateQRReplacesToken(t *testing.T) {
	f := newFakePatientStore(testPatient())
	svc := NewService(f, nil, "https://clinic.example.com")

	p, err := svc.RegenerateQR(context.Background(), "patient-1")
	require.NoError(t, err)
	assert.NotEqual(t, "token-1", p.QRAccessToken)
	assert.NotEmpty(t, p.QRCodeData)
	assert.Equal(t, p.QRAccessToken, f.patients["patient-1"].QRAccessToken)
}

func TestAccessByQRTokenAuditsAndNotifies(t *testing.T) {
	f := newFakePatientStore(testPatient())
	n := &fakeNotifier{}
	svc := NewService(f, n, "https://clinic.example.com")

	p, err := svc.AccessByQRToken(context.Background(), "token-1", AccessContext{
		AccessedBy: "Dr. Vega",
		IPAddress:  "10.0.0.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "patient-1", p.ID)

	require.Len(t, f.audits, 1)
	assert.Equal(t, models.ActionRecordAccess, f.audits[0].Action)
	assert.Equal(t, "patient-1", f.audits[0].PatientID)
	assert.Contains(t, f.audits[0].Description, "Dr. Vega")

	require.Len(t, n.calls, 1)
	assert.Equal(t, "patient-1:Dr. Vega", n.calls[0])
}

func TestAccessByQRTokenUnknown(t *testing.T) {
	f := newFakePatientStore(testPatient())
	svc := NewService(f, nil, "https://clinic.example.com")

	_, err := svc.AccessByQRToken(context.Background(), "bogus", AccessContext{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.audits)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	p := testPatient()
	p.Allergies = []string{"penicillin"}
	p.ChronicDiseases = []string{"asthma"}
	f := newFakePatientStore(p)
	svc := NewService(f, nil, "https://clinic.example.com")

	got, err := svc.Update(context.Background(), "patient-1", UpdateInput{
		Allergies: []string{"penicillin", "ibuprofen"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"penicillin", "ibuprofen"}, got.Allergies)
	assert.Equal(t, []string{"asthma"}, got.ChronicDiseases)
}

func TestGetOwnMissingProfile(t *testing.T) {
	f := newFakePatientStore()
	svc := NewService(f, nil, "https://clinic.example.com")

	_, err := svc.GetOwn(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
