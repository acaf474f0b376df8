package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/campusnav/apiserver/internal/storage"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

const uploadPrefix = "images/"

// ObjectStore is satisfied by *storage.Storage.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// UploadResult describes a stored image.
type UploadResult struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	DeleteURL string `json:"deleteUrl"`
}

// UploadService stores building and profile images in object storage.
type UploadService struct {
	store ObjectStore
}

// NewUploadService accepts a nil store; every call then fails with
// ErrStorageUnavailable.
func NewUploadService(store ObjectStore) *UploadService {
	return &UploadService{store: store}
}

// Upload validates data as an image and stores it under a fresh key.
func (s *UploadService) Upload(ctx context.Context, data []byte, filename string) (UploadResult, error) {
	if s.store == nil {
		return UploadResult{}, ErrStorageUnavailable
	}
	if len(data) == 0 {
		return UploadResult{}, invalidRequest("no image uploaded")
	}
	if len(data) > MaxUploadBytes {
		return UploadResult{}, invalidRequest("image exceeds 10 MiB")
	}

	detected := mimetype.Detect(data)
	contentType := detected.String()
	if !strings.HasPrefix(contentType, "image/") {
		return UploadResult{}, invalidRequest("file is not an image")
	}
	ext := detected.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}

	key := uploadPrefix + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		URL:       s.store.URL(key),
		Key:       key,
		DeleteURL: "/api/upload/" + key,
	}, nil
}

// Open returns the stored object. Callers close Body.
func (s *UploadService) Open(ctx context.Context, key string) (storage.Object, error) {
	if s.store == nil {
		return storage.Object{}, ErrStorageUnavailable
	}
	if !validUploadKey(key) {
		return storage.Object{}, ErrNotFound
	}
	obj, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.Object{}, ErrNotFound
	}
	return obj, err
}

func (s *UploadService) Delete(ctx context.Context, key string) error {
	if s.store == nil {
		return ErrStorageUnavailable
	}
	if !validUploadKey(key) {
		return ErrNotFound
	}
	err := s.store.Delete(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return ErrNotFound
	}
	return err
}

// DecodeBase64Image decodes a raw or data-URL base64 image payload.
func DecodeBase64Image(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 {
			return nil, invalidRequest("malformed data url")
		}
		raw = raw[comma+1:]
	}
	if raw == "" {
		return nil, invalidRequest("no image uploaded")
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxUploadBytes+3 {
		return nil, invalidRequest("image exceeds 10 MiB")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, invalidRequest("image is not valid base64")
	}
	return data, nil
}

func validUploadKey(key string) bool {
	return strings.HasPrefix(key, uploadPrefix) &&
		!strings.Contains(key, "..") &&
		len(key) > len(uploadPrefix)
}
