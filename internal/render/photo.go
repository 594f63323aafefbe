package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// maxPhotoBytes caps downloaded photos.
const maxPhotoBytes = 10 << 20

// defaultClient is used when a PhotoLoader has no Client.
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// PhotoLoader resolves a record's photo reference into an image.
type PhotoLoader struct {
	BaseDir string       // Relative file paths are resolved against this
	Client  *http.Client // Used for http(s) references
}

// Load decodes the photo behind ref. ref may be a data URI, an http(s) URL,
// a file path, or raw base64. URL fetches stop when ctx is done.
func (l PhotoLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

func (l PhotoLoader) read(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		comma := strings.IndexByte(ref, ',')
		if comma < 0 || !strings.Contains(ref[:comma], ";base64") {
			return nil, fmt.Errorf("unsupported data URI")
		}
		return base64.StdEncoding.DecodeString(ref[comma+1:])

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	}

	path := ref
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		path = filepath.Join(l.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}

	// Providers sometimes send bare base64 without the data: prefix.
	if decoded, derr := base64.StdEncoding.DecodeString(ref); derr == nil && len(decoded) > 0 {
		return decoded, nil
	}
	return nil, err
}

func (l PhotoLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch photo: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}
