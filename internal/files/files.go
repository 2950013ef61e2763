// Package files manages uploads on a patient's record: the object goes to
// the blob store, the metadata row to the database.
package files

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/storage"
	"github.com/odsie/odsie/internal/store"
)

var (
	ErrNotFound = errors.New("medical file not found")

	// ErrInvalidFileType means the declared category is not one of the known
	// kinds.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrStorageUnavailable means no object store is configured.
	ErrStorageUnavailable = errors.New("file storage is not configured")
)

// ObjectStore is the blob side of an upload.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (*storage.UploadResult, error)
	GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// FileStore is the metadata side of an upload.
type FileStore interface {
	CreateFile(ctx context.Context, f *models.MedicalFile) error
	GetFileByID(ctx context.Context, id string) (*models.MedicalFile, error)
	GetFilesByPatient(ctx context.Context, patientID, folder string) ([]*models.MedicalFile, error)
	DeleteFile(ctx context.Context, id string) error
}

// Service coordinates the blob store and the metadata rows.
type Service struct {
	store   FileStore
	objects ObjectStore
}

func NewService(s FileStore, objects ObjectStore) *Service {
	return &Service{store: s, objects: objects}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	PatientID   string
	UploadedBy  string
	FileName    string
	MimeType    string
	FileType    models.FileType
	Folder      string
	Description string
	Content     io.Reader
}

// Upload stores the object first, then the metadata row. If the row insert
// fails the orphaned object is removed again.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.MedicalFile, error) {
	if s.objects == nil {
		return nil, ErrStorageUnavailable
	}
	if !in.FileType.Valid() {
		return nil, ErrInvalidFileType
	}
	folder := in.Folder
	if folder == "" {
		folder = "general"
	}

	key := storage.PatientFileKey(in.PatientID, folder, in.FileName)
	result, err := s.objects.UploadFile(ctx, key, in.Content, in.MimeType)
	if err != nil {
		return nil, err
	}

	f := &models.MedicalFile{
		PatientID:   in.PatientID,
		UploadedBy:  in.UploadedBy,
		FileName:    in.FileName,
		FileURL:     result.URL,
		StorageKey:  result.Key,
		FileSize:    result.Size,
		MimeType:    in.MimeType,
		FileType:    in.FileType,
		Folder:      folder,
		Description: in.Description,
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		if delErr := s.objects.DeleteFile(ctx, result.Key); delErr != nil {
			log.Printf("[FILES] failed to remove orphaned object %s: %v", result.Key, delErr)
		}
		return nil, err
	}
	return f, nil
}

// Get loads one file's metadata.
func (s *Service) Get(ctx context.Context, id string) (*models.MedicalFile, error) {
	f, err := s.store.GetFileByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return f, nil
}

// ListByPatient returns a patient's files, optionally filtered by folder.
func (s *Service) ListByPatient(ctx context.Context, patientID, folder string) ([]*models.MedicalFile, error) {
	return s.store.GetFilesByPatient(ctx, patientID, folder)
}

// DownloadURL returns a time-limited URL for a private object.
func (s *Service) DownloadURL(ctx context.Context, id string, expiration time.Duration) (string, error) {
	if s.objects == nil {
		return "", ErrStorageUnavailable
	}
	f, err := s.store.GetFileByID(ctx, id)
	if err != nil {
		return "", mapNotFound(err)
	}
	return s.objects.GeneratePresignedURL(ctx, f.StorageKey, expiration)
}

// Delete removes the object, then the metadata row. A missing object is
// logged but does not keep the row alive.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.store.GetFileByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}

	if f.StorageKey != "" && s.objects != nil {
		if err := s.objects.DeleteFile(ctx, f.StorageKey); err != nil {
			log.Printf("[FILES] failed to delete object %s: %v", f.StorageKey, err)
		}
	}
	return mapNotFound(s.store.DeleteFile(ctx, id))
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
