// Package imagestore uploads product images to Cloudinary and hands back
// their durable HTTPS URLs.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MaxImages is the most images a product may carry.
const MaxImages = 4

type File struct {
	Name string
	Body io.Reader
}

type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
}

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDINARY_URL: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file File) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, file.Body, uploader.UploadParams{
		ResourceType: "image",
		Folder:       u.folder,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Name, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", file.Name, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("upload " + file.Name + ": no url returned")
	}
	return res.SecureURL, nil
}

// UploadAll uploads files in order and returns their URLs. It stops at the
// first failure.
func UploadAll(ctx context.Context, u Uploader, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := u.Upload(ctx, f)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
