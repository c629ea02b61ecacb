package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	PhotoFolder         = "elite-explore/photos"
	photoTransformation = "c_limit,w_1200,h_1200,q_auto"
)

var ErrNotConfigured = errors.New("media uploads not configured")

// Uploader stores an image and returns its public https URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, publicID string) (string, error)
}

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(url string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         PhotoFolder,
		PublicID:       publicID,
		Transformation: photoTransformation,
	})
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload to cloudinary: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}
