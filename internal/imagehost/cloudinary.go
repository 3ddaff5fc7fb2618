// Package imagehost stores evidence photos on an external image host.
package imagehost

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultFolder is the logical partition evidence images are stored under.
const DefaultFolder = "solar_evidence"

// ErrDisabled is returned by Disabled for every upload.
var ErrDisabled = errors.New("image host not configured")

// ErrUnsupportedPayload is returned for anything other than base64 image data.
var ErrUnsupportedPayload = errors.New("photo is not base64 encoded data")

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryConfig holds account credentials and the destination folder.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Cloudinary uploads encoded images (data URIs or base64) to a Cloudinary folder.
type Cloudinary struct {
	api    uploadAPI
	folder string
}

// NewCloudinary constructs a client that returns secure (https) URLs.
func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return newCloudinary(&cld.Upload, cfg.Folder), nil
}

func newCloudinary(api uploadAPI, folder string) *Cloudinary {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{api: api, folder: folder}
}

// Upload stores payload and returns its durable URL. The deadline comes from ctx.
// payload must be a base64 data URI or bare base64; the SDK would otherwise read
// a plain string as a path on the local disk.
func (c *Cloudinary) Upload(ctx context.Context, payload string) (string, error) {
	dataURI, err := toDataURI(payload)
	if err != nil {
		return "", err
	}
	result, err := c.api.Upload(ctx, dataURI, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result == nil {
		return "", errors.New("cloudinary upload: empty response")
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("cloudinary upload: response carried no secure url")
	}
	return result.SecureURL, nil
}

// toDataURI normalises payload into a data URI the SDK posts as form data.
// The bytes are decoded and re-encoded so the result always matches api.IsBase64Data.
func toDataURI(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if api.IsBase64Data(payload) {
		return payload, nil
	}

	mediaType, body := "", payload
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return "", ErrUnsupportedPayload
		}
		mediaType, body = strings.TrimSuffix(meta, ";base64"), data
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = mediaType[:i]
		}
	}

	raw, err := decodeBase64(body)
	if err != nil || len(raw) == 0 {
		return "", ErrUnsupportedPayload
	}
	if mediaType == "" {
		mediaType, _, _ = strings.Cut(http.DetectContentType(raw), ";")
	}

	dataURI := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
	if !api.IsBase64Data(dataURI) {
		return "", ErrUnsupportedPayload
	}
	return dataURI, nil
}

func decodeBase64(body string) ([]byte, error) {
	body = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, body)
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return base64.URLEncoding.DecodeString(body)
	}
	return raw, nil
}

// Disabled is used when no image host is configured. Every upload fails, so raw
// photos are dropped while already-hosted URLs still pass through.
type Disabled struct{}

// Upload always returns ErrDisabled.
func (Disabled) Upload(context.Context, string) (string, error) {
	return "", ErrDisabled
}
