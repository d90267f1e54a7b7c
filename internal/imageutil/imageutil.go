// Package imageutil downloads and resizes the images the assistant pushes
// to the community's visual surfaces.
package imageutil

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Target dimensions for sidebar images. Large source images fit within
// double size, small ones within the base size.
const (
	BaseWidth  = 300
	BaseHeight = 400
)

// Download fetches an image to a uniquely named temp file and returns its
// path. The caller owns cleanup.
func Download(ctx context.Context, imageURL string, timeout time.Duration) (string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Path == "" {
		return "", fmt.Errorf("not a usable image url: %s", imageURL)
	}
	ext := path.Ext(parsed.Path)
	if ext == "" {
		ext = ".png"
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading image: status=%d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	dest := filepath.Join(os.TempDir(), uuid.NewString()+ext)
	if err := imaging.Save(img, dest); err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return dest, nil
}

// Size returns an image file's dimensions.
func Size(filePath string) (width, height int, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("reading image size: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Resize fits the image within 600x800, or within 300x400 when it is
// already small, preserving aspect ratio. Returns the path of a new temp
// file; the caller owns cleanup.
func Resize(filePath string) (string, error) {
	img, err := imaging.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filePath, err)
	}

	maxWidth, maxHeight := BaseWidth*2, BaseHeight*2
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth && bounds.Dy() <= maxHeight {
		maxWidth, maxHeight = BaseWidth, BaseHeight
	}
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	dest := filepath.Join(os.TempDir(), uuid.NewString()+path.Ext(filePath))
	if err := imaging.Save(img, dest); err != nil {
		return "", fmt.Errorf("saving resized image: %w", err)
	}
	return dest, nil
}

// Cleanup deletes temp files, ignoring ones already gone.
func Cleanup(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
	}
}
