package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/storage"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/google/uuid"
)

// Content types accepted for media messages. Matches the image/video message
// types the feed renders.
var allowedMediaTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

type PresignUploadInput struct {
	ConversationID ids.ConversationID
	UploaderID     ids.UserID
	ContentType    string
}

type PresignUploadResult struct {
	UploadURL string            `json:"upload_url"`
	ObjectKey string            `json:"object_key"`
	Headers   map[string]string `json:"headers"`
}

type UploadService struct {
	storage *storage.Client
}

func NewUploadService(storage *storage.Client) *UploadService {
	return &UploadService{storage: storage}
}

// PresignMedia signs a direct-to-bucket upload for an image or video
// message. The returned object key becomes the message content once the
// client finishes the PUT and sends the message.
func (s *UploadService) PresignMedia(ctx context.Context, in PresignUploadInput) (PresignUploadResult, error) {
	if s.storage == nil {
		return PresignUploadResult{}, pulse_errors.ErrServiceUnavailable
	}
	if in.ConversationID.IsZero() || in.UploaderID.IsZero() {
		return PresignUploadResult{}, pulse_errors.ErrInvalidInput
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := allowedMediaTypes[contentType]
	if !ok {
		return PresignUploadResult{}, pulse_errors.ErrInvalidInput
	}

	key := path.Join("media", in.ConversationID.String(), fmt.Sprintf("%s%s", uuid.NewString(), ext))
	url, headers, err := s.storage.PresignPut(ctx, key, contentType)
	if err != nil {
		return PresignUploadResult{}, err
	}

	return PresignUploadResult{
		UploadURL: url,
		ObjectKey: key,
		Headers:   headers,
	}, nil
}
