package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// PhotoRepository defines the interface for service order photo storage
type PhotoRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// GenerateObjectPath creates a unique object path for a service order photo.
// Layout: <storeID>/orders/<orderID>/<uuid>_<variant><ext>
func GenerateObjectPath(storeID int32, orderID int32, variant string, ext string) string {
	filename := fmt.Sprintf("%s_%s%s", uuid.New().String(), variant, ext)
	return path.Join(fmt.Sprintf("%d", storeID), "orders", fmt.Sprintf("%d", orderID), filename)
}
