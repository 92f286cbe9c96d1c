package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrObjectNotFound means the blob is already gone
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage deletes blobs by their storage path
type ObjectStorage interface {
	Delete(ctx context.Context, path string) error
}

// CloudinaryStorage deletes post attachments from Cloudinary. Storage paths
// are Cloudinary public ids.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret string) (*CloudinaryStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryStorage{cld: cld}, nil
}

// Delete implements ObjectStorage
func (s *CloudinaryStorage) Delete(ctx context.Context, path string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   path,
		Invalidate: &[]bool{true}[0],
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return destroyOutcome(path, result.Result, result.Error.Message)
}

// destroyOutcome maps Cloudinary's destroy result string to an error
func destroyOutcome(path, result, apiError string) error {
	switch {
	case apiError != "":
		return fmt.Errorf("failed to delete %s: %s", path, apiError)
	case result == "ok":
		return nil
	case result == "not found":
		return ErrObjectNotFound
	default:
		return fmt.Errorf("failed to delete %s: unexpected result %q", path, result)
	}
}
