// Package avatar stores profile photos uploaded as base64 data URLs.
package avatar

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// maxPhotoBytes caps decoded photo size at 5 MiB.
const maxPhotoBytes = 5 << 20

// Store saves a profile photo and returns the URL to record on the profile.
type Store interface {
	Save(ctx context.Context, userID, dataURL string) (string, error)
}

// InlineStore keeps the data URL as-is, storing the image bytes inside the
// profile document. Used when no bucket is configured.
type InlineStore struct{}

func (InlineStore) Save(_ context.Context, _ string, dataURL string) (string, error) {
	if _, _, err := parseDataURL(dataURL); err != nil {
		return "", err
	}
	return dataURL, nil
}

// GCSStore writes photos to a Cloud Storage bucket and returns the public
// object URL. Assumes Application Default Credentials.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Save(ctx context.Context, userID, dataURL string) (string, error) {
	mime, data, err := parseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	object := fmt.Sprintf("avatars/%s%s", userID, extForMIME(mime))
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = mime
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write avatar to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize avatar upload: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// parseDataURL splits a "data:image/png;base64,...." URL into its MIME type
// and decoded bytes. Only base64-encoded image payloads are accepted.
func parseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mime, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return "", nil, fmt.Errorf("data URL must be base64 encoded")
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", nil, fmt.Errorf("unsupported content type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return "", nil, fmt.Errorf("photo exceeds %d byte limit", maxPhotoBytes)
	}
	return mime, data, nil
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
