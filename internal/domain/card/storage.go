package card

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// ImageStore persists card images in the storage bucket and hands out public
// URLs for the stored objects.
type ImageStore struct {
	client *storage.Client
	bucket string
}

func NewImageStore(client *storage.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

// Upload writes the image under cards/{cardOwner}/ with a random object name
// and returns the object path and its public URL.
func (s *ImageStore) Upload(ctx context.Context, ownerUID string, img Image) (path, url string, err error) {
	if len(img.Data) == 0 {
		return "", "", fmt.Errorf("%w: empty image", ErrImageUpload)
	}

	path = fmt.Sprintf("cards/%s/%s", ownerUID, uuid.NewString())
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = img.ContentType
	if w.ContentType == "" {
		w.ContentType = "application/octet-stream"
	}

	if _, err := io.Copy(w, bytes.NewReader(img.Data)); err != nil {
		_ = w.Close()
		return "", "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}

	url = fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
	return path, url, nil
}

// Delete removes a stored object. Deleting an already-absent object is fine.
func (s *ImageStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", path, err)
	}
	return nil
}
