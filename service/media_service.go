package service

import (
	"context"
	"mime/multipart"

	"github.com/ndalamahub/ndalamahub/pkg/cloudinary"
)

const guarantorFolder = "ndalamahub/guarantor-documents"

type mediaService struct {
	uploader *cloudinary.Service
}

// Upload implements Media.
func (m *mediaService) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	return m.uploader.UploadDocument(ctx, file, guarantorFolder)
}

func NewMediaService(uploader *cloudinary.Service) Media {
	return &mediaService{
		uploader: uploader,
	}
}
