package cloudinary

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Config holds Cloudinary credentials
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Service handles document uploads to Cloudinary. Guarantor documents
// are the only media the system stores.
type Service struct {
	client *cloudinary.Cloudinary
}

func NewService(config Config) (*Service, error) {
	cld, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &Service{
		client: cld,
	}, nil
}

// UploadDocument uploads a single document and returns its secure URL.
func (s *Service) UploadDocument(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	uploadResult, err := s.client.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:    folder,
		PublicID:  generatePublicID(file.Filename),
		Overwrite: func(b bool) *bool { return &b }(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}

func generatePublicID(filename string) string {
	return filename[:len(filename)-len(filepath.Ext(filename))] + "_" + fmt.Sprintf("%d", time.Now().Unix())
}
