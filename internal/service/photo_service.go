package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/techfix/techfix-backend/internal/repository/storage"
)

const (
	MaxPhotoSize   = 5 * 1024 * 1024 // 5MB
	MinPhotoWidth  = 50
	MinPhotoHeight = 50
	ThumbnailWidth = 200
	DisplayWidth   = 1024
	JPEGQuality    = 85

	// PresignExpiry bounds how long a photo URL stays valid
	PresignExpiry = 15 * time.Minute
)

var (
	ErrPhotoTooLarge          = errors.New("file too large. Maximum size is 5MB")
	ErrPhotoInvalidFormat     = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrPhotoTooSmall          = errors.New("image too small. Minimum 50x50 pixels")
	ErrPhotoInvalidData       = errors.New("invalid image data")
	ErrPhotoStorageNotConfigured = errors.New("photo storage not configured")
)

// allowedExtensions maps extensions to content types
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// PhotoVariant pairs the stored object keys for one uploaded photo
type PhotoVariant struct {
	ThumbKey   string `json:"thumbKey"`
	DisplayKey string `json:"displayKey"`
}

// PhotoService processes and stores service order photos
type PhotoService struct {
	storage storage.PhotoRepository
}

// NewPhotoService creates a new PhotoService
func NewPhotoService(storage storage.PhotoRepository) *PhotoService {
	return &PhotoService{storage: storage}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *PhotoService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

func (s *PhotoService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxPhotoSize {
		return nil, ErrPhotoTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, ErrPhotoInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrPhotoInvalidData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinPhotoWidth || bounds.Dy() < MinPhotoHeight {
		return nil, ErrPhotoTooSmall
	}

	return img, nil
}

// ProcessAndUpload resizes the photo and uploads thumb and display
// variants. Returns the display key; it is what gets stored on the order.
func (s *PhotoService) ProcessAndUpload(ctx context.Context, storeID int32, orderID int32, data []byte, filename string) (*PhotoVariant, error) {
	if !s.IsEnabled() {
		return nil, ErrPhotoStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	photoID := uuid.New().String()

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
	}

	keys := make(map[string]string)

	for _, variant := range variants {
		var processed image.Image
		if img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := fmt.Sprintf("%d/orders/%d/%s_%s.jpg", storeID, orderID, photoID, variant.name)

		key, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.cleanup(ctx, keys)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}

		keys[variant.name] = key
	}

	return &PhotoVariant{
		ThumbKey:   keys["thumb"],
		DisplayKey: keys["display"],
	}, nil
}

// cleanup removes variants uploaded before a failure. Best effort.
func (s *PhotoService) cleanup(ctx context.Context, keys map[string]string) {
	for _, key := range keys {
		_ = s.storage.Delete(ctx, key)
	}
}

// PresignURL generates a temporary download URL for a stored photo key
func (s *PhotoService) PresignURL(ctx context.Context, key string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrPhotoStorageNotConfigured
	}
	return s.storage.GeneratePresignedURL(ctx, key, PresignExpiry)
}

// DeletePhoto removes a stored photo and its thumbnail
func (s *PhotoService) DeletePhoto(ctx context.Context, key string) error {
	if !s.IsEnabled() {
		return ErrPhotoStorageNotConfigured
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return err
	}
	// Thumb key mirrors the display key
	if strings.HasSuffix(key, "_display.jpg") {
		_ = s.storage.Delete(ctx, strings.TrimSuffix(key, "_display.jpg")+"_thumb.jpg")
	}
	return nil
}
