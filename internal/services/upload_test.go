package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/campusnav/apiserver/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjectStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (storage.Object, error) {
	data, ok := f.objects[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: f.types[key],
		Size:        int64(len(data)),
	}, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	if _, ok := f.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) URL(key string) string {
	return "https://cdn.example.edu/" + key
}

func TestUploadStoresImage(t *testing.T) {
	objects := newFakeObjectStore()
	svc := NewUploadService(objects)
	ctx := context.Background()

	result, err := svc.Upload(ctx, pngHeader, "campus.png")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if !strings.HasPrefix(result.Key, "images/") || !strings.HasSuffix(result.Key, ".png") {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if result.URL != "https://cdn.example.edu/"+result.Key {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if result.DeleteURL != "/api/upload/"+result.Key {
		t.Fatalf("unexpected delete url %q", result.DeleteURL)
	}
	if objects.types[result.Key] != "image/png" {
		t.Fatalf("expected image/png, got %q", objects.types[result.Key])
	}

	obj, err := svc.Open(ctx, result.Key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer obj.Body.Close()
	body, _ := io.ReadAll(obj.Body)
	if !bytes.Equal(body, pngHeader) {
		t.Fatalf("unexpected body")
	}

	if err := svc.Delete(ctx, result.Key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(ctx, result.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Open(ctx, result.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadDetectsImageFormats(t *testing.T) {
	objects := newFakeObjectStore()
	svc := NewUploadService(objects)

	cases := []struct {
		name        string
		data        []byte
		contentType string
		ext         string
	}{
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01"), "image/jpeg", ".jpg"},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), "image/webp", ".webp"},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"), "image/heic", ".heic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Upload(context.Background(), tc.data, "upload.bin")
			if err != nil {
				t.Fatalf("Upload error: %v", err)
			}
			if !strings.HasSuffix(result.Key, tc.ext) {
				t.Fatalf("expected %s key, got %q", tc.ext, result.Key)
			}
			if objects.types[result.Key] != tc.contentType {
				t.Fatalf("expected %s, got %q", tc.contentType, objects.types[result.Key])
			}
		})
	}
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	svc := NewUploadService(newFakeObjectStore())
	ctx := context.Background()

	if _, err := svc.Upload(ctx, nil, "x.png"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty data, got %v", err)
	}
	if _, err := svc.Upload(ctx, []byte("just some text"), "x.png"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for text, got %v", err)
	}
	if _, err := svc.Upload(ctx, make([]byte, MaxUploadBytes+1), "x.png"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for oversize data, got %v", err)
	}
	if _, err := svc.Open(ctx, "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign key, got %v", err)
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	svc := NewUploadService(nil)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, pngHeader, "x.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := svc.Open(ctx, "images/a.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := svc.Delete(ctx, "images/a.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestDecodeBase64Image(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	for _, raw := range []string{encoded, "data:image/png;base64," + encoded} {
		data, err := DecodeBase64Image(raw)
		if err != nil {
			t.Fatalf("DecodeBase64Image(%q) error: %v", raw, err)
		}
		if !bytes.Equal(data, pngHeader) {
			t.Fatalf("unexpected decoded bytes")
		}
	}

	for _, raw := range []string{"", "data:image/png;base64", "%%%"} {
		if _, err := DecodeBase64Image(raw); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %q, got %v", raw, err)
		}
	}
}
