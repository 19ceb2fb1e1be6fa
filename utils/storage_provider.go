package utils

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	StorageProviderLocal = "local"
	StorageProviderGCS   = "gcs"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderLocal
	}
	return provider
}

// StoreObject writes data under objectKey with the configured provider and
// returns the public URL of the stored object.
func StoreObject(ctx context.Context, uploadDir string, publicBase string, objectKey string, data []byte, contentType string) (string, error) {
	switch GetStorageProvider() {
	case StorageProviderGCS:
		if err := UploadBytesToGCS(ctx, objectKey, data, contentType); err != nil {
			return "", err
		}
		return BuildObjectAccessURL(objectKey), nil
	case StorageProviderLocal:
		target := filepath.Join(uploadDir, filepath.FromSlash(objectKey))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return "", err
		}
		return strings.TrimRight(publicBase, "/") + "/" + path.Clean(objectKey), nil
	default:
		return "", fmt.Errorf("storage provider %q not supported", GetStorageProvider())
	}
}

// RemoveObject deletes a previously stored object; missing objects are ignored.
func RemoveObject(ctx context.Context, uploadDir string, publicBase string, publicURL string) error {
	if strings.TrimSpace(publicURL) == "" {
		return nil
	}
	switch GetStorageProvider() {
	case StorageProviderGCS:
		key := ExtractObjectKeyFromURL(publicURL)
		if key == "" {
			return nil
		}
		return DeleteObjectFromGCS(ctx, key)
	case StorageProviderLocal:
		prefix := strings.TrimRight(publicBase, "/") + "/"
		if !strings.HasPrefix(publicURL, prefix) {
			return nil
		}
		key := path.Clean(strings.TrimPrefix(publicURL, prefix))
		if strings.HasPrefix(key, "..") {
			return nil
		}
		err := os.Remove(filepath.Join(uploadDir, filepath.FromSlash(key)))
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return nil
}
