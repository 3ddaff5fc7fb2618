package domain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tigocode/solar-back/internal/observability"
)

// DefaultUploadTimeout bounds a single image upload.
const DefaultUploadTimeout = 120 * time.Second

// ImageHost stores an encoded image and returns a durable URL for it.
type ImageHost interface {
	Upload(ctx context.Context, payload string) (string, error)
}

// EvidenceUploader turns submitted photo payloads into hosted URLs.
type EvidenceUploader struct {
	host    ImageHost
	timeout time.Duration
	logger  *slog.Logger
}

// NewEvidenceUploader constructs an EvidenceUploader. A non-positive timeout selects DefaultUploadTimeout.
func NewEvidenceUploader(host ImageHost, timeout time.Duration, logger *slog.Logger) *EvidenceUploader {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceUploader{host: host, timeout: timeout, logger: logger}
}

// ProcessImages uploads raw payloads one at a time and returns hosted URLs in input order.
// Items that already are URLs pass through untouched. A failed upload is logged and
// dropped; it never fails the batch.
func (u *EvidenceUploader) ProcessImages(ctx context.Context, items []string) []string {
	urls := make([]string, 0, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if isHostedURL(item) {
			urls = append(urls, item)
			observability.RecordEvidence(observability.EvidencePassthrough)
			continue
		}

		url, err := u.upload(ctx, item)
		if err != nil {
			u.logger.Warn("evidence upload failed, skipping image", "index", i, "error", err)
			observability.RecordEvidence(observability.EvidenceFailed)
			continue
		}
		urls = append(urls, url)
		observability.RecordEvidence(observability.EvidenceUploaded)
	}
	return urls
}

// upload runs detached from the caller's cancellation; only the per-call ceiling stops it.
func (u *EvidenceUploader) upload(ctx context.Context, payload string) (string, error) {
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()
	return u.host.Upload(uploadCtx, payload)
}

func isHostedURL(item string) bool {
	lower := strings.ToLower(item)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
