package utils

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrStorageNotConfigured = errors.New("GCS_BUCKET is required")

func gcsBucket() string {
	return strings.TrimSpace(os.Getenv("GCS_BUCKET"))
}

// GCSConfigured reports whether receipt storage is available.
func GCSConfigured() bool {
	return gcsBucket() != ""
}

// getGoogleClient prefers explicit GCS_CREDENTIALS_JSON and falls back to
// application default credentials.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// PublicObjectURL is the URL clients use to fetch an uploaded object.
func PublicObjectURL(objectName string) string {
	if base := strings.TrimRight(strings.TrimSpace(os.Getenv("GCS_PUBLIC_BASE_URL")), "/"); base != "" {
		return base + "/" + objectName
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", gcsBucket(), (&url.URL{Path: objectName}).EscapedPath())
}

// UploadObjectToGCS writes data under objectName and returns its public URL.
func UploadObjectToGCS(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	bucketName := gcsBucket()
	if bucketName == "" {
		return "", ErrStorageNotConfigured
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "private, max-age=86400"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("gcs write %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", objectName, err)
	}
	return PublicObjectURL(objectName), nil
}
