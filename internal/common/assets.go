package common

import "context"

// AssetStore is the binary asset collaborator: it stores an uploaded image and
// returns a stable retrieval URL. Deletion by key is idempotent.
type AssetStore interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

// ImageUpload carries a decoded multipart image part into a service call.
type ImageUpload struct {
	Data        []byte
	ContentType string
}
