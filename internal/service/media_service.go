package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type MediaService interface {
	Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error)
	List(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
}

type mediaService struct {
	assets repository.MediaAssetRepository
	r2     *R2Service
}

func NewMediaService(assets repository.MediaAssetRepository, r2 *R2Service) MediaService {
	return &mediaService{assets: assets, r2: r2}
}

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {}, "gif": {}, "webp": {},
}

// Upload stores each file in object storage and records an asset row. The
// file type is sniffed from content, not trusted from the request.
func (s *mediaService) Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	var uploaded []*models.MediaAsset

	for _, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return nil, fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
		}
		if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
			return nil, fmt.Errorf("%w: file type %s is not allowed", ErrInvalidInput, fileType.Extension)
		}

		asset, err := s.saveFile(ctx, userID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to upload file: %w", err)
		}
		uploaded = append(uploaded, asset)
	}
	return uploaded, nil
}

func (s *mediaService) saveFile(ctx context.Context, userID int64, contentType string, file []byte) (*models.MediaAsset, error) {
	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := s.r2.UploadToR2(ctx, key, file, contentType); err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: key,
		FileType: contentType,
		FileURL:  s.r2.PublicURL(key),
	}
	id, err := s.assets.Create(ctx, nil, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = id
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	assets, err := s.assets.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media assets: %w", err)
	}
	return assets, nil
}
